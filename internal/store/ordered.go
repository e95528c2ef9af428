package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/position"
)

// An ordered table holds recipe sub-resources with a dense 1..N position
// per recipe, unique per (recipe_id, position). All functions here run inside
// the caller's transaction, after the recipe row is locked.

func countOrdered(ctx context.Context, tx *sql.Tx, table string, recipeID int64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE recipe_id = ?`, table), recipeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

// applyShift moves a range of positions in two steps: the shifted rows are
// first parked at negated targets, then flipped back. No intermediate state
// collides with the unique index whatever order rows are visited in.
func applyShift(ctx context.Context, tx *sql.Tx, table string, recipeID int64, s position.Shift) error {
	if s.Empty() {
		return nil
	}

	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET position = -(position + ?)
		              WHERE recipe_id = ? AND position BETWEEN ? AND ?`, table),
		s.Delta, recipeID, s.From, s.To,
	)
	if err != nil {
		return fmt.Errorf("parking %s positions: %w", table, err)
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET position = -position WHERE recipe_id = ? AND position < 0`, table),
		recipeID,
	)
	if err != nil {
		return fmt.Errorf("shifting %s positions: %w", table, err)
	}
	return nil
}

// insertOrdered opens a gap at the requested position and returns the
// effective position the new row must take.
func insertOrdered(ctx context.Context, tx *sql.Tx, table string, recipeID int64, requested, limit int) (int, error) {
	n, err := countOrdered(ctx, tx, table, recipeID)
	if err != nil {
		return 0, err
	}
	if n >= limit {
		return 0, contentLimit(table, limit)
	}

	at, shift, err := position.Insert(n, requested)
	if err != nil {
		return 0, err
	}
	if err := applyShift(ctx, tx, table, recipeID, shift); err != nil {
		return 0, err
	}
	return at, nil
}

// orderedPosition returns the recipe and position of one row.
func orderedPosition(ctx context.Context, tx *sql.Tx, table string, id int64) (recipeID int64, pos int, err error) {
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT recipe_id, position FROM %s WHERE id = ?`, table), id,
	).Scan(&recipeID, &pos)
	if err == sql.ErrNoRows {
		return 0, 0, fmt.Errorf("%s %d: %w", table, id, model.ErrNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("reading %s position: %w", table, err)
	}
	return recipeID, pos, nil
}

// moveOrdered moves row id to the requested position. It reports whether
// the position actually changed.
func moveOrdered(ctx context.Context, tx *sql.Tx, table string, id int64, requested int) (bool, error) {
	recipeID, old, err := orderedPosition(ctx, tx, table, id)
	if err != nil {
		return false, err
	}
	n, err := countOrdered(ctx, tx, table, recipeID)
	if err != nil {
		return false, err
	}

	target, shift, err := position.Move(n, old, requested)
	if err != nil {
		return false, err
	}
	if target == old {
		return false, nil
	}

	// Position 0 is outside 1..N and clear of the parked negatives.
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET position = 0 WHERE id = ?`, table), id,
	); err != nil {
		return false, fmt.Errorf("parking moved %s: %w", table, err)
	}
	if err := applyShift(ctx, tx, table, recipeID, shift); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET position = ? WHERE id = ?`, table), target, id,
	); err != nil {
		return false, fmt.Errorf("placing moved %s: %w", table, err)
	}
	return true, nil
}

// deleteOrdered removes row id and closes the gap it leaves.
func deleteOrdered(ctx context.Context, tx *sql.Tx, table string, id int64) error {
	recipeID, pos, err := orderedPosition(ctx, tx, table, id)
	if err != nil {
		return err
	}
	n, err := countOrdered(ctx, tx, table, recipeID)
	if err != nil {
		return err
	}

	shift, err := position.Delete(n, pos)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id,
	); err != nil {
		return fmt.Errorf("deleting %s: %w", table, err)
	}
	return applyShift(ctx, tx, table, recipeID, shift)
}

// lockOrderedOwner locks the recipe owning row id of table, provided the
// recipe belongs to accountID.
func lockOrderedOwner(ctx context.Context, tx *sql.Tx, table string, id, accountID int64) error {
	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE recipes SET id = id
		             WHERE id = (SELECT recipe_id FROM %s WHERE id = ?) AND account_id = ?`, table),
		id, accountID,
	)
	if err != nil {
		return fmt.Errorf("locking recipe: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("locking recipe: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, model.ErrNotFound)
	}
	return nil
}
