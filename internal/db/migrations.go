package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// migrations are applied in order after schema creation; the index of the
// last applied one is kept in settings.schema_version. Append only.
var migrations = []string{
	// 1: indexes backing the windowed statistics, which filter related rows
	// by owner and creation time.
	`CREATE INDEX IF NOT EXISTS idx_recipes_account_created ON recipes(account_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_recipe_created ON ratings(recipe_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_recipe_categories_category ON recipe_categories(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_ingredient ON recipe_ingredients(ingredient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_account_reports_reported ON account_reports(reported_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rating_likes_rating ON rating_likes(rating_id)`,
}

// Migrate creates the schema and applies pending migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	applied, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for i := applied; i < len(migrations); i++ {
		if err := applyMigration(db, i); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, i int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migrations[i]); err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO settings (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(i+1),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the number of migrations applied to db.
func SchemaVersion(db *sql.DB) (int, error) {
	var raw string
	err := db.QueryRow(`SELECT value FROM settings WHERE key = 'schema_version'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q", raw)
	}
	return v, nil
}
