package query

import (
	"strings"
	"time"
)

// TimeLayout matches SQLite's CURRENT_TIMESTAMP text so bound times compare
// correctly against stored DATETIME columns.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t the way SQLite stores CURRENT_TIMESTAMP.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Expr is a parameterized SQL fragment.
type Expr struct {
	SQL  string
	Args []any
}

// True is the predicate that filters nothing.
func True() Expr {
	return Expr{SQL: "1 = 1"}
}

// Where builds a predicate fragment.
func Where(sql string, args ...any) Expr {
	return Expr{SQL: sql, Args: args}
}

// And joins predicates into a conjunction. No predicates yield True.
func And(exprs ...Expr) Expr {
	return join(exprs, " AND ")
}

// Or joins predicates into a disjunction. No predicates yield True.
func Or(exprs ...Expr) Expr {
	return join(exprs, " OR ")
}

func join(exprs []Expr, sep string) Expr {
	var kept []Expr
	for _, e := range exprs {
		if e.SQL != "" {
			kept = append(kept, e)
		}
	}
	switch len(kept) {
	case 0:
		return True()
	case 1:
		return kept[0]
	}

	parts := make([]string, len(kept))
	var args []any
	for i, e := range kept {
		parts[i] = "(" + e.SQL + ")"
		args = append(args, e.Args...)
	}
	return Expr{SQL: strings.Join(parts, sep), Args: args}
}
