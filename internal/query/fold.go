package query

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"modernc.org/sqlite"
)

// FoldFunc is the SQL function search predicates wrap stored text in.
// SQLite's LIKE folds ASCII only; fold() gives stored text and search tokens
// the same Unicode case folding.
const FoldFunc = "fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldValue)
}

// Fold returns s in NFC with Unicode case folding applied.
func Fold(s string) string {
	// A Caser keeps state between calls and must not be shared.
	return cases.Fold().String(norm.NFC.String(s))
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", FoldFunc, v)
	}
}
