package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

const accountSelect = `SELECT id, email, name, about, photo, password_hash, moderator, banned, created_at FROM accounts`

func scanAccount(s query.Scanner) (*model.Account, error) {
	a := &model.Account{}
	var about, photo sql.NullString
	if err := s.Scan(&a.ID, &a.Email, &a.Name, &about, &photo, &a.PasswordHash, &a.Moderator, &a.Banned, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.About = about.String
	a.Photo = photo.String
	return a, nil
}

// CreateAccount registers a new account. Emails of banned accounts stay
// taken.
func CreateAccount(ctx context.Context, db *sql.DB, email, name, about, passwordHash string) (*model.Account, error) {
	existing, err := GetAccountByEmail(ctx, db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.Invalid("email", "already registered")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO accounts (email, name, about, password_hash) VALUES (?, ?, ?, ?)`,
		email, name, nullString(about), passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting account id: %w", err)
	}

	return GetAccount(ctx, db, id)
}

// GetAccount returns an account by ID, banned or not.
func GetAccount(ctx context.Context, db *sql.DB, id int64) (*model.Account, error) {
	a, err := scanAccount(db.QueryRowContext(ctx, accountSelect+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return a, nil
}

// GetAccountByEmail returns an account by email.
func GetAccountByEmail(ctx context.Context, db *sql.DB, email string) (*model.Account, error) {
	a, err := scanAccount(db.QueryRowContext(ctx, accountSelect+` WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by email: %w", err)
	}
	return a, nil
}

// AccountUpdate holds the profile fields to change; nil fields are kept.
type AccountUpdate struct {
	Name  *string `json:"name"`
	About *string `json:"about"`
}

// UpdateAccount updates an account's profile.
func UpdateAccount(ctx context.Context, db *sql.DB, id int64, u AccountUpdate) error {
	if u.Name != nil && *u.Name == "" {
		return model.Invalid("name", "must not be empty")
	}

	var about sql.NullString
	if u.About != nil {
		about = nullString(*u.About)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE accounts SET name = COALESCE(?, name),
		                     about = CASE WHEN ? THEN ? ELSE about END
		 WHERE id = ? AND banned = 0`,
		u.Name, u.About != nil, about, id,
	)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// UpdateAccountPassword updates an account's password hash.
func UpdateAccountPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE id = ? AND banned = 0`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating account password: %w", err)
	}
	return nil
}

// SetAccountPhoto stores the media path of an account's photo and returns
// the path it replaced.
func SetAccountPhoto(ctx context.Context, db *sql.DB, id int64, photo string) (string, error) {
	return replacePhoto(ctx, db, "accounts", id, photo, query.Where("banned = 0"))
}

// ToggleModerator flips the moderator flag of an active account and returns
// the new value.
func ToggleModerator(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	var moderator bool
	err := db.QueryRowContext(ctx,
		`UPDATE accounts SET moderator = NOT moderator WHERE id = ? AND banned = 0 RETURNING moderator`,
		id,
	).Scan(&moderator)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("account %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("toggling moderator: %w", err)
	}
	return moderator, nil
}

// DeleteAccount removes an account with all of its content and returns the
// media paths that no longer have an owner.
func DeleteAccount(ctx context.Context, db *sql.DB, id int64) ([]string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "accounts", id); err != nil {
		return nil, err
	}

	photos, err := accountPhotos(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("deleting account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing account deletion: %w", err)
	}
	return photos, nil
}

// accountPhotos lists the media paths owned by an account: its own photo and
// the photos of its recipes.
func accountPhotos(ctx context.Context, tx *sql.Tx, id int64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT photo FROM accounts WHERE id = ? AND photo IS NOT NULL
		 UNION ALL
		 SELECT p.photo FROM recipe_photos p JOIN recipes r ON r.id = p.recipe_id WHERE r.account_id = ?`,
		id, id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing account photos: %w", err)
	}
	defer rows.Close()

	var photos []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// AccountFilter narrows an account listing.
type AccountFilter struct {
	// Moderator selects the moderator view: report counts become visible
	// and sortable.
	Moderator bool
	// OnlyModerators lists moderators only.
	OnlyModerators bool
}

// ListAccounts searches, orders and paginates active accounts.
func ListAccounts(ctx context.Context, db *sql.DB, p query.Params, f AccountFilter) (*query.Page[model.AccountStats], error) {
	d := publicAccounts
	if f.Moderator {
		d = moderatedAccounts
	}

	p.Filters = append(p.Filters, query.Where("a.banned = 0"))
	if f.OnlyModerators {
		p.Filters = append(p.Filters, query.Where("a.moderator = 1"))
	}

	return query.List(ctx, db, d, p, scanAccountStats(f.Moderator))
}

// GetAccountStats returns an active account with its statistics.
func GetAccountStats(ctx context.Context, db *sql.DB, id int64, moderator bool) (*model.AccountStats, error) {
	d := publicAccounts
	if moderator {
		d = moderatedAccounts
	}

	a, ok, err := query.One(ctx, db, d, scanAccountStats(moderator),
		query.Where("a.id = ?", id), query.Where("a.banned = 0"))
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &a, nil
}
