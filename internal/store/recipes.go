package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// RecipeInput holds the core fields of a new recipe.
type RecipeInput struct {
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	PrepTime   int     `json:"prep_time"`
	Calories   int     `json:"calories"`
	Categories []int64 `json:"categories"`
}

// RecipeUpdate holds the core fields to change; nil fields are kept.
type RecipeUpdate struct {
	Name       *string  `json:"name"`
	Title      *string  `json:"title"`
	PrepTime   *int     `json:"prep_time"`
	Calories   *int     `json:"calories"`
	Categories *[]int64 `json:"categories"`
}

func (u RecipeUpdate) validate(limits config.Limits) error {
	if u.Name != nil && *u.Name == "" {
		return model.Invalid("name", "must not be empty")
	}
	if u.Title != nil && *u.Title == "" {
		return model.Invalid("title", "must not be empty")
	}
	if u.PrepTime != nil && *u.PrepTime < 0 {
		return model.Invalid("prep_time", "must not be negative")
	}
	if u.Calories != nil && *u.Calories < 0 {
		return model.Invalid("calories", "must not be negative")
	}
	if u.Categories != nil && len(*u.Categories) > limits.RecipeCategories {
		return model.Invalid("categories", "category limit exceeded")
	}
	return nil
}

// CreateRecipe creates an unsubmitted recipe owned by account, subject to
// the account's recipe rate limit.
func CreateRecipe(ctx context.Context, db *sql.DB, limits config.Limits, account *model.Account, in RecipeInput) (*model.Recipe, error) {
	full := RecipeUpdate{Name: &in.Name, Title: &in.Title, PrepTime: &in.PrepTime, Calories: &in.Calories, Categories: &in.Categories}
	if err := full.validate(limits); err != nil {
		return nil, err
	}

	rate := limits.Recipes
	if account.Moderator {
		rate = limits.ModeratorRecipes
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "accounts", account.ID, query.Where("banned = 0")); err != nil {
		return nil, err
	}
	if err := checkRate(ctx, tx, "recipes", account.ID, rate); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO recipes (account_id, name, title, prep_time, calories) VALUES (?, ?, ?, ?, ?)`,
		account.ID, in.Name, in.Title, in.PrepTime, in.Calories,
	)
	if err != nil {
		return nil, fmt.Errorf("creating recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting recipe id: %w", err)
	}

	if err := setCategories(ctx, tx, id, in.Categories); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing recipe: %w", err)
	}
	return GetRecipe(ctx, db, id)
}

// UpdateRecipe changes the core fields of one of the account's recipes and
// resets its status.
func UpdateRecipe(ctx context.Context, db *sql.DB, limits config.Limits, accountID, recipeID int64, u RecipeUpdate) error {
	if err := u.validate(limits); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOwnedRecipe(ctx, tx, accountID, recipeID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE recipes SET name = COALESCE(?, name), title = COALESCE(?, title),
		                    prep_time = COALESCE(?, prep_time), calories = COALESCE(?, calories)
		 WHERE id = ?`,
		u.Name, u.Title, u.PrepTime, u.Calories, recipeID,
	)
	if err != nil {
		return fmt.Errorf("updating recipe: %w", err)
	}

	if u.Categories != nil {
		if err := setCategories(ctx, tx, recipeID, *u.Categories); err != nil {
			return err
		}
	}

	if err := resetStatus(ctx, tx, recipeID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing recipe update: %w", err)
	}
	return nil
}

// setCategories replaces the category set of a recipe.
func setCategories(ctx context.Context, tx *sql.Tx, recipeID int64, ids []int64) error {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	if len(ids) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		var found int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM categories WHERE id IN (`+placeholders+`)`, args...,
		).Scan(&found)
		if err != nil {
			return fmt.Errorf("checking categories: %w", err)
		}
		if found != len(ids) {
			return model.Invalid("categories", "unknown category")
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_categories WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("clearing recipe categories: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_categories (recipe_id, category_id) VALUES (?, ?)`, recipeID, id,
		); err != nil {
			return fmt.Errorf("adding recipe category: %w", err)
		}
	}
	return nil
}

// DeleteRecipe deletes one of the account's recipes and returns the media
// paths of its photos.
func DeleteRecipe(ctx context.Context, db *sql.DB, accountID, recipeID int64) ([]string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOwnedRecipe(ctx, tx, accountID, recipeID); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT photo FROM recipe_photos WHERE recipe_id = ?`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("listing recipe photos: %w", err)
	}
	var photos []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning recipe photo: %w", err)
		}
		photos = append(photos, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing recipe photos: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, recipeID); err != nil {
		return nil, fmt.Errorf("deleting recipe: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing recipe deletion: %w", err)
	}
	return photos, nil
}

// GetRecipe returns a recipe with its category IDs.
func GetRecipe(ctx context.Context, db *sql.DB, id int64) (*model.Recipe, error) {
	r := &model.Recipe{}
	var denyMessage sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, account_id, name, title, prep_time, calories, status, deny_message, created_at
		 FROM recipes WHERE id = ?`, id,
	).Scan(&r.ID, &r.AccountID, &r.Name, &r.Title, &r.PrepTime, &r.Calories, &r.Status, &denyMessage, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	r.DenyMessage = denyMessage.String

	r.Categories, err = recipeCategories(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func recipeCategories(ctx context.Context, db *sql.DB, recipeID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT category_id FROM recipe_categories WHERE recipe_id = ? ORDER BY category_id`, recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recipe categories: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning recipe category: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetRecipeDetail returns a recipe with its statistics and every
// sub-resource.
func GetRecipeDetail(ctx context.Context, db *sql.DB, id int64) (*model.RecipeDetail, error) {
	stats, ok, err := query.One(ctx, db, recipes, scanRecipeStats, query.Where("r.id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	if !ok {
		return nil, nil
	}

	d := &model.RecipeDetail{RecipeStats: stats}
	if d.Categories, err = recipeCategories(ctx, db, id); err != nil {
		return nil, err
	}
	if d.Photos, err = ListRecipePhotos(ctx, db, id); err != nil {
		return nil, err
	}
	if d.Instructions, err = ListRecipeInstructions(ctx, db, id); err != nil {
		return nil, err
	}
	if d.Ingredients, err = ListRecipeIngredients(ctx, db, id); err != nil {
		return nil, err
	}
	return d, nil
}

// FavouriteRecipe marks or unmarks a published recipe as an account's
// favourite.
func FavouriteRecipe(ctx context.Context, db *sql.DB, accountID, recipeID int64, favourite bool) error {
	n, err := countRows(ctx, db, "recipes", query.Where("id = ? AND status = 'ACCEPTED'", recipeID))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("recipe %d: %w", recipeID, model.ErrNotFound)
	}

	if favourite {
		_, err = db.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipe_favourites (account_id, recipe_id) VALUES (?, ?)`,
			accountID, recipeID,
		)
	} else {
		_, err = db.ExecContext(ctx,
			`DELETE FROM recipe_favourites WHERE account_id = ? AND recipe_id = ?`,
			accountID, recipeID,
		)
	}
	if err != nil {
		return fmt.Errorf("updating recipe favourite: %w", err)
	}
	return nil
}

// RecipeFilter narrows a recipe listing.
type RecipeFilter struct {
	// Statuses lists the visible statuses; empty means published only.
	Statuses []model.RecipeStatus
	// AccountID lists only this account's recipes.
	AccountID int64
	// Categories lists recipes in any of these categories.
	Categories []int64
	// FavouritesOf lists only the favourites of this account.
	FavouritesOf int64
	// CookableBy lists recipes whose every per-serving line is covered by
	// this account's inventory.
	CookableBy int64
}

func (f RecipeFilter) exprs() []query.Expr {
	statuses := f.Statuses
	if len(statuses) == 0 {
		statuses = []model.RecipeStatus{model.StatusAccepted}
	}
	var byStatus []query.Expr
	for _, s := range statuses {
		byStatus = append(byStatus, query.Where("r.status = ?", s))
	}
	exprs := []query.Expr{query.Or(byStatus...)}

	if f.AccountID != 0 {
		exprs = append(exprs, query.Where("r.account_id = ?", f.AccountID))
	}
	if len(f.Categories) > 0 {
		var byCategory []query.Expr
		for _, id := range f.Categories {
			byCategory = append(byCategory, query.Where("rc.category_id = ?", id))
		}
		in := query.Or(byCategory...)
		exprs = append(exprs, query.Where(
			`EXISTS (SELECT 1 FROM recipe_categories rc WHERE rc.recipe_id = r.id AND (`+in.SQL+`))`,
			in.Args...,
		))
	}
	if f.FavouritesOf != 0 {
		exprs = append(exprs, query.Where(
			`EXISTS (SELECT 1 FROM recipe_favourites rf WHERE rf.recipe_id = r.id AND rf.account_id = ?)`,
			f.FavouritesOf,
		))
	}
	if f.CookableBy != 0 {
		exprs = append(exprs, query.Where(
			`NOT EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND NOT EXISTS (
			     SELECT 1 FROM inventory inv
			     WHERE inv.account_id = ? AND inv.ingredient_id = ri.ingredient_id
			       AND CAST(inv.amount AS REAL) >= CAST(ri.amount AS REAL)))`,
			f.CookableBy,
		))
	}
	return exprs
}

// ListRecipes searches, orders and paginates recipes.
func ListRecipes(ctx context.Context, db *sql.DB, p query.Params, f RecipeFilter) (*query.Page[model.RecipeStats], error) {
	p.Filters = append(p.Filters, f.exprs()...)
	return query.List(ctx, db, recipes, p, scanRecipeStats)
}
