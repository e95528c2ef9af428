package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// CreateIngredient creates a new ingredient measured in unit.
func CreateIngredient(ctx context.Context, db *sql.DB, name, unit, about string) (*model.Ingredient, error) {
	if name == "" {
		return nil, model.Invalid("name", "must not be empty")
	}
	if unit == "" {
		return nil, model.Invalid("unit", "must not be empty")
	}
	if err := uniqueName(ctx, db, "ingredients", name, 0); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO ingredients (name, unit, about) VALUES (?, ?, ?)`,
		name, unit, nullString(about),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ingredient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting ingredient id: %w", err)
	}

	return GetIngredient(ctx, db, id)
}

// GetIngredient returns an ingredient by ID.
func GetIngredient(ctx context.Context, db *sql.DB, id int64) (*model.Ingredient, error) {
	i := &model.Ingredient{}
	var about, photo sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, unit, about, photo, created_at FROM ingredients WHERE id = ?`, id,
	).Scan(&i.ID, &i.Name, &i.Unit, &about, &photo, &i.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ingredient: %w", err)
	}
	i.About = about.String
	i.Photo = photo.String
	return i, nil
}

// IngredientUpdate holds the ingredient fields to change; nil fields are kept.
type IngredientUpdate struct {
	Name  *string `json:"name"`
	Unit  *string `json:"unit"`
	About *string `json:"about"`
}

// UpdateIngredient updates an ingredient.
func UpdateIngredient(ctx context.Context, db *sql.DB, id int64, u IngredientUpdate) error {
	if u.Name != nil {
		if *u.Name == "" {
			return model.Invalid("name", "must not be empty")
		}
		if err := uniqueName(ctx, db, "ingredients", *u.Name, id); err != nil {
			return err
		}
	}
	if u.Unit != nil && *u.Unit == "" {
		return model.Invalid("unit", "must not be empty")
	}

	var about sql.NullString
	if u.About != nil {
		about = nullString(*u.About)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE ingredients SET name = COALESCE(?, name),
		                        unit = COALESCE(?, unit),
		                        about = CASE WHEN ? THEN ? ELSE about END
		 WHERE id = ?`,
		u.Name, u.Unit, u.About != nil, about, id,
	)
	if err != nil {
		return fmt.Errorf("updating ingredient: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("ingredient %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// SetIngredientPhoto stores an ingredient's photo and returns the path it
// replaced.
func SetIngredientPhoto(ctx context.Context, db *sql.DB, id int64, photo string) (string, error) {
	return replacePhoto(ctx, db, "ingredients", id, photo)
}

// DeleteIngredient deletes an ingredient along with every ledger line
// holding it. Ingredients of published recipes need an admin.
func DeleteIngredient(ctx context.Context, db *sql.DB, id int64, admin bool) (string, error) {
	return deleteCatalogued(ctx, db, "ingredients", id, admin,
		`SELECT COUNT(*) FROM recipe_ingredients ri JOIN recipes r ON r.id = ri.recipe_id
		 WHERE ri.ingredient_id = ? AND r.status = 'ACCEPTED'`)
}

// IngredientFilter narrows an ingredient listing.
type IngredientFilter struct {
	// HeldBy lists only ingredients in this account's inventory.
	HeldBy int64
}

// ListIngredients searches, orders and paginates ingredients.
func ListIngredients(ctx context.Context, db *sql.DB, p query.Params, f IngredientFilter) (*query.Page[model.IngredientStats], error) {
	if f.HeldBy != 0 {
		p.Filters = append(p.Filters, query.Where(
			`EXISTS (SELECT 1 FROM inventory inv WHERE inv.ingredient_id = i.id AND inv.account_id = ?)`,
			f.HeldBy,
		))
	}
	return query.List(ctx, db, ingredients, p, scanIngredientStats)
}

// GetIngredientStats returns an ingredient with its statistics.
func GetIngredientStats(ctx context.Context, db *sql.DB, id int64) (*model.IngredientStats, error) {
	i, ok, err := query.One(ctx, db, ingredients, scanIngredientStats, query.Where("i.id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting ingredient: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &i, nil
}
