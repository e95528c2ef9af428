package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/ledger"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// A ledger table holds positive decimal amounts of ingredients keyed by
// (owner, ingredient). The two ledgers are the account inventory and the
// per-serving recipe ingredient lists.
type ledgerTable struct {
	table string
	owner string
	what  string
}

var (
	inventoryLedger = ledgerTable{table: "inventory", owner: "account_id", what: "inventory"}
	recipeLedger    = ledgerTable{table: "recipe_ingredients", owner: "recipe_id", what: "recipe ingredient"}
)

// merge adds delta to one entry, deleting it when the amount drops to zero
// or below. limit caps the number of entries per owner. It returns the
// resulting amount, zero when the entry was deleted.
func (l ledgerTable) merge(ctx context.Context, tx *sql.Tx, ownerID, ingredientID int64, delta decimal.Decimal, limit int) (decimal.Decimal, error) {
	var exists int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients WHERE id = ?`, ingredientID).Scan(&exists)
	if err != nil {
		return decimal.Zero, fmt.Errorf("checking ingredient: %w", err)
	}
	if exists == 0 {
		return decimal.Zero, fmt.Errorf("ingredient %d: %w", ingredientID, model.ErrNotFound)
	}

	var current decimal.Decimal
	found := true
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT amount FROM %s WHERE %s = ? AND ingredient_id = ?`, l.table, l.owner),
		ownerID, ingredientID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		found = false
	} else if err != nil {
		return decimal.Zero, fmt.Errorf("reading %s amount: %w", l.what, err)
	}

	next, keep, err := ledger.Merge(current, found, delta)
	if err != nil {
		return decimal.Zero, err
	}

	switch {
	case !keep:
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND ingredient_id = ?`, l.table, l.owner),
			ownerID, ingredientID,
		)
	case found:
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET amount = ? WHERE %s = ? AND ingredient_id = ?`, l.table, l.owner),
			next, ownerID, ingredientID,
		)
	default:
		var n int
		n, err = l.count(ctx, tx, ownerID)
		if err != nil {
			return decimal.Zero, err
		}
		if n >= limit {
			return decimal.Zero, contentLimit(l.what, limit)
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, ingredient_id, amount) VALUES (?, ?, ?)`, l.table, l.owner),
			ownerID, ingredientID, next,
		)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("merging %s: %w", l.what, err)
	}
	return next, nil
}

func (l ledgerTable) count(ctx context.Context, tx *sql.Tx, ownerID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, l.table, l.owner), ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s lines: %w", l.what, err)
	}
	return n, nil
}

// lines returns every entry of one owner with the ingredient's name and
// unit, ordered by ingredient name.
func (l ledgerTable) lines(ctx context.Context, q query.Querier, ownerID int64) ([]model.LedgerLine, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT l.%s, l.ingredient_id, l.amount, i.name, i.unit
		             FROM %s l JOIN ingredients i ON i.id = l.ingredient_id
		             WHERE l.%s = ?
		             ORDER BY i.name, i.id`, l.owner, l.table, l.owner),
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", l.what, err)
	}
	defer rows.Close()

	lines := []model.LedgerLine{}
	for rows.Next() {
		var line model.LedgerLine
		if err := rows.Scan(&line.OwnerID, &line.IngredientID, &line.Amount, &line.IngredientName, &line.Unit); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", l.what, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// MergeInventory adds a signed amount of an ingredient to an account's
// inventory and returns the resulting amount (zero once the line is gone).
func MergeInventory(ctx context.Context, db *sql.DB, limits config.Limits, accountID, ingredientID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "accounts", accountID); err != nil {
		return decimal.Zero, err
	}

	amount, err := inventoryLedger.merge(ctx, tx, accountID, ingredientID, delta, limits.InventoryLines)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("committing inventory merge: %w", err)
	}
	return amount, nil
}

// MergeRecipeIngredient adds a signed per-serving amount of an ingredient to
// one of the account's recipes. Any change resets the recipe's status.
func MergeRecipeIngredient(ctx context.Context, db *sql.DB, limits config.Limits, accountID, recipeID, ingredientID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOwnedRecipe(ctx, tx, accountID, recipeID); err != nil {
		return decimal.Zero, err
	}

	amount, err := recipeLedger.merge(ctx, tx, recipeID, ingredientID, delta, limits.RecipeIngredients)
	if err != nil {
		return decimal.Zero, err
	}
	if err := resetStatus(ctx, tx, recipeID); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("committing recipe ingredient merge: %w", err)
	}
	return amount, nil
}

// ListInventory returns an account's inventory.
func ListInventory(ctx context.Context, db *sql.DB, accountID int64) ([]model.LedgerLine, error) {
	return inventoryLedger.lines(ctx, db, accountID)
}

// ListRecipeIngredients returns a recipe's per-serving ingredient lines.
func ListRecipeIngredients(ctx context.Context, db *sql.DB, recipeID int64) ([]model.LedgerLine, error) {
	return recipeLedger.lines(ctx, db, recipeID)
}

// CookRecipe consumes the ingredients of servings portions of a recipe from
// the account's inventory. Either every line is covered and all are
// consumed, or nothing changes and an "insufficient ingredients" error lists
// the shortages.
func CookRecipe(ctx context.Context, db *sql.DB, accountID, recipeID int64, servings int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "accounts", accountID); err != nil {
		return err
	}

	var visible int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE id = ? AND (status = 'ACCEPTED' OR account_id = ?)`,
		recipeID, accountID,
	).Scan(&visible)
	if err != nil {
		return fmt.Errorf("checking recipe: %w", err)
	}
	if visible == 0 {
		return fmt.Errorf("recipe %d: %w", recipeID, model.ErrNotFound)
	}

	perServing, err := recipeLedger.lines(ctx, tx, recipeID)
	if err != nil {
		return err
	}
	needs, err := ledger.Requirements(perServing, servings)
	if err != nil {
		return err
	}

	held, err := inventoryLedger.lines(ctx, tx, accountID)
	if err != nil {
		return err
	}
	holdings := make(map[int64]decimal.Decimal, len(held))
	for _, line := range held {
		holdings[line.IngredientID] = line.Amount
	}

	if short := ledger.Shortages(needs, holdings); len(short) > 0 {
		return ledger.Insufficient(short)
	}

	for _, need := range needs {
		if _, err := inventoryLedger.merge(ctx, tx, accountID, need.IngredientID, need.Amount.Neg(), 0); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cooking: %w", err)
	}
	return nil
}
