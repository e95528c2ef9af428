package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// CreateCategory creates a new category.
func CreateCategory(ctx context.Context, db *sql.DB, name, about string) (*model.Category, error) {
	if name == "" {
		return nil, model.Invalid("name", "must not be empty")
	}
	if err := uniqueName(ctx, db, "categories", name, 0); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, about) VALUES (?, ?)`,
		name, nullString(about),
	)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}

	return GetCategory(ctx, db, id)
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, db *sql.DB, id int64) (*model.Category, error) {
	c := &model.Category{}
	var about, photo sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, about, photo, created_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &about, &photo, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	c.About = about.String
	c.Photo = photo.String
	return c, nil
}

// CategoryUpdate holds the category fields to change; nil fields are kept.
type CategoryUpdate struct {
	Name  *string `json:"name"`
	About *string `json:"about"`
}

// UpdateCategory updates a category's name and description.
func UpdateCategory(ctx context.Context, db *sql.DB, id int64, u CategoryUpdate) error {
	if u.Name != nil {
		if *u.Name == "" {
			return model.Invalid("name", "must not be empty")
		}
		if err := uniqueName(ctx, db, "categories", *u.Name, id); err != nil {
			return err
		}
	}

	var about sql.NullString
	if u.About != nil {
		about = nullString(*u.About)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE categories SET name = COALESCE(?, name),
		                       about = CASE WHEN ? THEN ? ELSE about END
		 WHERE id = ?`,
		u.Name, u.About != nil, about, id,
	)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// SetCategoryPhoto stores a category's photo and returns the path it
// replaced.
func SetCategoryPhoto(ctx context.Context, db *sql.DB, id int64, photo string) (string, error) {
	return replacePhoto(ctx, db, "categories", id, photo)
}

// DeleteCategory deletes a category. A category used by published recipes
// can only be deleted by an admin. It returns the category's photo path.
func DeleteCategory(ctx context.Context, db *sql.DB, id int64, admin bool) (string, error) {
	return deleteCatalogued(ctx, db, "categories", id, admin,
		`SELECT COUNT(*) FROM recipe_categories rc JOIN recipes r ON r.id = rc.recipe_id
		 WHERE rc.category_id = ? AND r.status = 'ACCEPTED'`)
}

// FavouriteCategory marks or unmarks a category as an account's favourite.
func FavouriteCategory(ctx context.Context, db *sql.DB, accountID, categoryID int64, favourite bool) error {
	c, err := GetCategory(ctx, db, categoryID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("category %d: %w", categoryID, model.ErrNotFound)
	}

	if favourite {
		_, err = db.ExecContext(ctx,
			`INSERT OR IGNORE INTO category_favourites (account_id, category_id) VALUES (?, ?)`,
			accountID, categoryID,
		)
	} else {
		_, err = db.ExecContext(ctx,
			`DELETE FROM category_favourites WHERE account_id = ? AND category_id = ?`,
			accountID, categoryID,
		)
	}
	if err != nil {
		return fmt.Errorf("updating category favourite: %w", err)
	}
	return nil
}

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	// FavouritesOf lists only the favourites of this account.
	FavouritesOf int64
}

// ListCategories searches, orders and paginates categories.
func ListCategories(ctx context.Context, db *sql.DB, p query.Params, f CategoryFilter) (*query.Page[model.CategoryStats], error) {
	if f.FavouritesOf != 0 {
		p.Filters = append(p.Filters, query.Where(
			`EXISTS (SELECT 1 FROM category_favourites cf WHERE cf.category_id = c.id AND cf.account_id = ?)`,
			f.FavouritesOf,
		))
	}
	return query.List(ctx, db, categories, p, scanCategoryStats)
}

// GetCategoryStats returns a category with its statistics.
func GetCategoryStats(ctx context.Context, db *sql.DB, id int64) (*model.CategoryStats, error) {
	c, ok, err := query.One(ctx, db, categories, scanCategoryStats, query.Where("c.id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// uniqueName rejects a name already used by another row of table.
func uniqueName(ctx context.Context, db *sql.DB, table, name string, except int64) error {
	n, err := countRows(ctx, db, table, query.Where("name = ? AND id != ?", name, except))
	if err != nil {
		return err
	}
	if n > 0 {
		return model.Invalid("name", "already exists")
	}
	return nil
}

// deleteCatalogued deletes a category or ingredient. usage counts the
// published recipes referencing it; those require admin rights.
func deleteCatalogued(ctx context.Context, db *sql.DB, table string, id int64, admin bool, usage string) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, table, id); err != nil {
		return "", err
	}

	if !admin {
		var used int
		if err := tx.QueryRowContext(ctx, usage, id).Scan(&used); err != nil {
			return "", fmt.Errorf("checking %s usage: %w", table, err)
		}
		if used > 0 {
			return "", fmt.Errorf("%s %d is used by published recipes: %w", table, id, model.ErrForbidden)
		}
	}

	var photo sql.NullString
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ? RETURNING photo`, table), id,
	).Scan(&photo)
	if err != nil {
		return "", fmt.Errorf("deleting %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing %s deletion: %w", table, err)
	}
	return photo.String, nil
}
