package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// lockRow takes SQLite's write lock by touching the row the mutation
// belongs to, before any count or amount is read. The extra predicate narrows
// the row further (ownership); no matching row is ErrNotFound.
func lockRow(ctx context.Context, tx *sql.Tx, table string, id int64, extra ...query.Expr) error {
	where := query.And(append([]query.Expr{query.Where("id = ?", id)}, extra...)...)
	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET id = id WHERE %s`, table, where.SQL),
		where.Args...,
	)
	if err != nil {
		return fmt.Errorf("locking %s: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("locking %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, model.ErrNotFound)
	}
	return nil
}

// lockOwnedRecipe locks a recipe belonging to accountID.
func lockOwnedRecipe(ctx context.Context, tx *sql.Tx, accountID, recipeID int64) error {
	return lockRow(ctx, tx, "recipes", recipeID, query.Where("account_id = ?", accountID))
}

// checkRate rejects a creation when the account already created rate.Count
// rows of table within the trailing rate window.
func checkRate(ctx context.Context, tx *sql.Tx, table string, accountID int64, rate config.Rate) error {
	since := query.FormatTime(time.Now().Add(-rate.Window()))

	var count int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE account_id = ? AND created_at >= ?`, table),
		accountID, since,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("counting recent %s: %w", table, err)
	}

	if count >= rate.Count {
		return &model.PreconditionError{
			Reason:  "content limit reached",
			Details: map[string]any{"limit": rate.Count, "hours": rate.Hours},
		}
	}
	return nil
}

// contentLimit is the error for a per-recipe or per-account cap.
func contentLimit(what string, limit int) error {
	return &model.PreconditionError{
		Reason:  fmt.Sprintf("%s limit exceeded", what),
		Details: map[string]any{"limit": limit},
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// countRows counts the rows of table matching where.
func countRows(ctx context.Context, q query.Querier, table string, where query.Expr) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table, where.SQL),
		where.Args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

// replacePhoto sets the photo column of one row and returns the media path
// it replaced.
func replacePhoto(ctx context.Context, db *sql.DB, table string, id int64, photo string, extra ...query.Expr) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, table, id, extra...); err != nil {
		return "", err
	}

	var previous sql.NullString
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT photo FROM %s WHERE id = ?`, table), id,
	).Scan(&previous)
	if err != nil {
		return "", fmt.Errorf("reading %s photo: %w", table, err)
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET photo = ? WHERE id = ?`, table),
		nullString(photo), id,
	)
	if err != nil {
		return "", fmt.Errorf("setting %s photo: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing %s photo: %w", table, err)
	}
	return previous.String, nil
}
