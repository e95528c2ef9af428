package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/lifecycle"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// This file is the only writer of recipes.status and recipes.deny_message.

func setStatus(ctx context.Context, tx *sql.Tx, recipeID int64, status model.RecipeStatus, denyMessage string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE recipes SET status = ?, deny_message = ? WHERE id = ?`,
		status, nullString(denyMessage), recipeID,
	)
	if err != nil {
		return fmt.Errorf("setting recipe status: %w", err)
	}
	return nil
}

// resetStatus returns a recipe to UNSUBMITTED after a content edit and
// clears any denial message.
func resetStatus(ctx context.Context, tx *sql.Tx, recipeID int64) error {
	return setStatus(ctx, tx, recipeID, lifecycle.Reset(), "")
}

func recipeStatus(ctx context.Context, tx *sql.Tx, recipeID int64) (model.RecipeStatus, error) {
	var status model.RecipeStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM recipes WHERE id = ?`, recipeID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("recipe %d: %w", recipeID, model.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading recipe status: %w", err)
	}
	return status, nil
}

func recipeContent(ctx context.Context, tx *sql.Tx, recipeID int64) (lifecycle.Content, error) {
	var c lifecycle.Content
	err := tx.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM recipe_categories WHERE recipe_id = ?),
		        (SELECT COUNT(*) FROM recipe_photos WHERE recipe_id = ?),
		        (SELECT COUNT(*) FROM recipe_instructions WHERE recipe_id = ?),
		        (SELECT COUNT(*) FROM recipe_ingredients WHERE recipe_id = ?)`,
		recipeID, recipeID, recipeID, recipeID,
	).Scan(&c.Categories, &c.Photos, &c.Instructions, &c.Ingredients)
	if err != nil {
		return c, fmt.Errorf("counting recipe content: %w", err)
	}
	return c, nil
}

// SubmitRecipe submits an owner's recipe for moderation. Moderators publish
// their own recipes directly.
func SubmitRecipe(ctx context.Context, db *sql.DB, accountID, recipeID int64, moderator bool) (model.RecipeStatus, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOwnedRecipe(ctx, tx, accountID, recipeID); err != nil {
		return "", err
	}

	status, err := recipeStatus(ctx, tx, recipeID)
	if err != nil {
		return "", err
	}
	content, err := recipeContent(ctx, tx, recipeID)
	if err != nil {
		return "", err
	}

	next, err := lifecycle.Submit(status, content, moderator)
	if err != nil {
		return "", err
	}
	if err := setStatus(ctx, tx, recipeID, next, ""); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing recipe submission: %w", err)
	}
	return next, nil
}

// AcceptRecipe publishes a submitted recipe.
func AcceptRecipe(ctx context.Context, db *sql.DB, recipeID int64) error {
	return moderate(ctx, db, recipeID, func(status model.RecipeStatus) (model.RecipeStatus, string, error) {
		next, err := lifecycle.Accept(status)
		return next, "", err
	})
}

// DenyRecipe rejects a submitted recipe with a message for its owner.
func DenyRecipe(ctx context.Context, db *sql.DB, recipeID int64, message string) error {
	return moderate(ctx, db, recipeID, func(status model.RecipeStatus) (model.RecipeStatus, string, error) {
		next, err := lifecycle.Deny(status, message)
		return next, message, err
	})
}

func moderate(ctx context.Context, db *sql.DB, recipeID int64, transition func(model.RecipeStatus) (model.RecipeStatus, string, error)) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "recipes", recipeID); err != nil {
		return err
	}

	status, err := recipeStatus(ctx, tx, recipeID)
	if err != nil {
		return err
	}
	next, message, err := transition(status)
	if err != nil {
		return err
	}
	if err := setStatus(ctx, tx, recipeID, next, message); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing recipe moderation: %w", err)
	}
	return nil
}
