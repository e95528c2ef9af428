package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// RevokeToken blocks a token ID until the token would have expired anyway.
// Revocations past their expiry are dropped in the same transaction.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := query.FormatTime(time.Now())
	if _, err := tx.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now); err != nil {
		return fmt.Errorf("purging revoked tokens: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, query.FormatTime(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	return tx.Commit()
}

// IsTokenRevoked reports whether a live revocation exists for jti.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	n, err := countRows(ctx, db, "revoked_tokens", query.And(
		query.Where("jti = ?", jti),
		query.Where("expires_at >= ?", query.FormatTime(time.Now())),
	))
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}
