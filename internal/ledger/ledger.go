// Package ledger holds the amount arithmetic of the ingredient ledgers:
// account inventories and recipe ingredient lists. An entry exists only
// while its amount is positive.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// Amounts have at most two fractional digits and five significant ones.
var (
	MinAmount = decimal.RequireFromString("0.01")
	MaxAmount = decimal.RequireFromString("999.99")
)

// Places is the number of fractional digits an amount may carry.
const Places = 2

// CheckAmount validates a stored amount or a merge delta magnitude.
func CheckAmount(field string, amount decimal.Decimal) error {
	abs := amount.Abs()
	if !abs.Equal(abs.Truncate(Places)) {
		return model.Invalid(field, fmt.Sprintf("must have at most %d decimal places", Places))
	}
	if abs.LessThan(MinAmount) {
		return model.Invalid(field, "must not be zero")
	}
	if abs.GreaterThan(MaxAmount) {
		return model.Invalid(field, "must not exceed "+MaxAmount.StringFixed(Places))
	}
	return nil
}

// Merge adds delta to an entry's current amount. exists tells whether the
// entry is stored. It returns the new amount and whether the entry should be
// kept; a result of zero or less means the entry is deleted. A missing entry
// can only be created by a positive delta.
func Merge(current decimal.Decimal, exists bool, delta decimal.Decimal) (decimal.Decimal, bool, error) {
	if err := CheckAmount("amount", delta); err != nil {
		return decimal.Zero, false, err
	}

	if !exists {
		if !delta.IsPositive() {
			return decimal.Zero, false, fmt.Errorf("ledger entry: %w", model.ErrNotFound)
		}
		current = decimal.Zero
	}

	next := current.Add(delta)
	if !next.IsPositive() {
		return decimal.Zero, false, nil
	}
	if next.GreaterThan(MaxAmount) {
		return decimal.Zero, false, model.Invalid("amount", "resulting amount must not exceed "+MaxAmount.StringFixed(Places))
	}
	return next, true, nil
}

// Requirements scales per-serving recipe lines to the given servings.
func Requirements(lines []model.LedgerLine, servings int) ([]model.LedgerLine, error) {
	if servings < 1 {
		return nil, model.Invalid("servings", "must be at least 1")
	}

	n := decimal.NewFromInt(int64(servings))
	out := make([]model.LedgerLine, len(lines))
	for i, line := range lines {
		line.Amount = line.Amount.Mul(n)
		out[i] = line
	}
	return out, nil
}

// Shortage is a required ingredient the holder cannot cover.
type Shortage struct {
	IngredientID int64           `json:"ingredient_id"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

// Shortages lists every need not covered by holdings, ordered by ingredient.
// An ingredient absent from holdings is held at zero.
func Shortages(needs []model.LedgerLine, holdings map[int64]decimal.Decimal) []Shortage {
	var short []Shortage
	for _, need := range needs {
		have := holdings[need.IngredientID]
		if have.LessThan(need.Amount) {
			short = append(short, Shortage{IngredientID: need.IngredientID, Required: need.Amount, Available: have})
		}
	}
	sort.Slice(short, func(i, j int) bool { return short[i].IngredientID < short[j].IngredientID })
	return short
}

// Insufficient builds the single error reported when cooking cannot proceed.
func Insufficient(short []Shortage) error {
	ids := make([]int64, len(short))
	for i, s := range short {
		ids[i] = s.IngredientID
	}
	return &model.PreconditionError{
		Reason:  "insufficient ingredients",
		Details: map[string]any{"ingredients": ids, "shortages": short},
	}
}
