package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// AddRecipePhoto inserts a photo at the requested number, shifting later
// photos up.
func AddRecipePhoto(ctx context.Context, db *sql.DB, limits config.Limits, accountID, recipeID int64, photo string, number int) (*model.RecipePhoto, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOwnedRecipe(ctx, tx, accountID, recipeID); err != nil {
		return nil, err
	}

	at, err := insertOrdered(ctx, tx, "recipe_photos", recipeID, number, limits.RecipePhotos)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO recipe_photos (recipe_id, photo, position) VALUES (?, ?, ?)`,
		recipeID, photo, at,
	)
	if err != nil {
		return nil, fmt.Errorf("adding recipe photo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting recipe photo id: %w", err)
	}

	if err := resetStatus(ctx, tx, recipeID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing recipe photo: %w", err)
	}
	return &model.RecipePhoto{ID: id, RecipeID: recipeID, Photo: photo, Position: at}, nil
}

// PhotoUpdate replaces a photo's file and/or moves it; nil fields are kept.
type PhotoUpdate struct {
	Photo  *string
	Number *int
}

// UpdateRecipePhoto applies u to one of the account's recipe photos and
// returns the replaced media path, if the file changed.
func UpdateRecipePhoto(ctx context.Context, db *sql.DB, accountID, photoID int64, u PhotoUpdate) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOrderedOwner(ctx, tx, "recipe_photos", photoID, accountID); err != nil {
		return "", err
	}

	var recipeID int64
	var previous string
	err = tx.QueryRowContext(ctx,
		`SELECT recipe_id, photo FROM recipe_photos WHERE id = ?`, photoID,
	).Scan(&recipeID, &previous)
	if err != nil {
		return "", fmt.Errorf("reading recipe photo: %w", err)
	}

	changed := false
	replaced := ""
	if u.Number != nil {
		moved, err := moveOrdered(ctx, tx, "recipe_photos", photoID, *u.Number)
		if err != nil {
			return "", err
		}
		changed = moved
	}
	if u.Photo != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE recipe_photos SET photo = ? WHERE id = ?`, *u.Photo, photoID,
		); err != nil {
			return "", fmt.Errorf("replacing recipe photo: %w", err)
		}
		changed = true
		replaced = previous
	}

	if changed {
		if err := resetStatus(ctx, tx, recipeID); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing recipe photo update: %w", err)
	}
	return replaced, nil
}

// DeleteRecipePhoto removes one of the account's recipe photos, closes the
// numbering gap and returns the removed media path.
func DeleteRecipePhoto(ctx context.Context, db *sql.DB, accountID, photoID int64) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOrderedOwner(ctx, tx, "recipe_photos", photoID, accountID); err != nil {
		return "", err
	}

	var recipeID int64
	var photo string
	err = tx.QueryRowContext(ctx,
		`SELECT recipe_id, photo FROM recipe_photos WHERE id = ?`, photoID,
	).Scan(&recipeID, &photo)
	if err != nil {
		return "", fmt.Errorf("reading recipe photo: %w", err)
	}

	if err := deleteOrdered(ctx, tx, "recipe_photos", photoID); err != nil {
		return "", err
	}
	if err := resetStatus(ctx, tx, recipeID); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing recipe photo deletion: %w", err)
	}
	return photo, nil
}

// ListRecipePhotos returns a recipe's photos in order.
func ListRecipePhotos(ctx context.Context, db *sql.DB, recipeID int64) ([]model.RecipePhoto, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, recipe_id, photo, position FROM recipe_photos WHERE recipe_id = ? ORDER BY position`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recipe photos: %w", err)
	}
	defer rows.Close()

	photos := []model.RecipePhoto{}
	for rows.Next() {
		var p model.RecipePhoto
		if err := rows.Scan(&p.ID, &p.RecipeID, &p.Photo, &p.Position); err != nil {
			return nil, fmt.Errorf("scanning recipe photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
