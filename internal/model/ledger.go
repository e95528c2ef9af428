package model

import "github.com/shopspring/decimal"

// LedgerLine is an amount of one ingredient held by an account (inventory)
// or required by a recipe per serving.
type LedgerLine struct {
	OwnerID        int64           `json:"owner_id"`
	IngredientID   int64           `json:"ingredient_id"`
	Amount         decimal.Decimal `json:"amount"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	Unit           string          `json:"unit,omitempty"`
}
