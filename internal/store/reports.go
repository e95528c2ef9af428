package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// ReportAccount files a report against another active account.
func ReportAccount(ctx context.Context, db *sql.DB, limits config.Limits, reporterID, reportedID int64) error {
	if reporterID == reportedID {
		return model.Invalid("account", "cannot report yourself")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "accounts", reporterID, query.Where("banned = 0")); err != nil {
		return err
	}
	if err := checkRate(ctx, tx, "account_reports", reporterID, limits.Reports); err != nil {
		return err
	}

	n, err := countRows(ctx, tx, "accounts", query.Where("id = ? AND banned = 0", reportedID))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", reportedID, model.ErrNotFound)
	}

	n, err = countRows(ctx, tx, "account_reports", query.Where("account_id = ? AND reported_id = ?", reporterID, reportedID))
	if err != nil {
		return err
	}
	if n > 0 {
		return model.Invalid("account", "already reported")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO account_reports (account_id, reported_id) VALUES (?, ?)`,
		reporterID, reportedID,
	); err != nil {
		return fmt.Errorf("reporting account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing report: %w", err)
	}
	return nil
}

// moderatable narrows the accounts a moderation action can target: active
// ones, and only non-moderators unless the actor is an admin.
func moderatable(admin bool) query.Expr {
	if admin {
		return query.Where("banned = 0")
	}
	return query.Where("banned = 0 AND moderator = 0")
}

// DismissReports deletes every report against an account.
func DismissReports(ctx context.Context, db *sql.DB, accountID int64, admin bool) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "accounts", accountID, moderatable(admin)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM account_reports WHERE reported_id = ?`, accountID); err != nil {
		return fmt.Errorf("dismissing reports: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing report dismissal: %w", err)
	}
	return nil
}

// BanAccount removes all content of an account and keeps it only as a
// banned placeholder holding its email. It returns the freed media paths.
func BanAccount(ctx context.Context, db *sql.DB, accountID int64, admin bool) ([]string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "accounts", accountID, moderatable(admin)); err != nil {
		return nil, err
	}

	photos, err := accountPhotos(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	cleanup := []string{
		`DELETE FROM recipes WHERE account_id = ?`,
		`DELETE FROM ratings WHERE account_id = ?`,
		`DELETE FROM rating_likes WHERE account_id = ?`,
		`DELETE FROM recipe_favourites WHERE account_id = ?`,
		`DELETE FROM category_favourites WHERE account_id = ?`,
		`DELETE FROM inventory WHERE account_id = ?`,
		`DELETE FROM account_reports WHERE account_id = ?1 OR reported_id = ?1`,
	}
	for _, stmt := range cleanup {
		if _, err := tx.ExecContext(ctx, stmt, accountID); err != nil {
			return nil, fmt.Errorf("removing banned account content: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET banned = 1, moderator = 0, photo = NULL, about = NULL WHERE id = ?`, accountID,
	); err != nil {
		return nil, fmt.Errorf("banning account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ban: %w", err)
	}
	return photos, nil
}
