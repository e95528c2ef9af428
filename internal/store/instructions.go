package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// AddRecipeInstruction inserts a preparation step at the requested number.
func AddRecipeInstruction(ctx context.Context, db *sql.DB, limits config.Limits, accountID, recipeID int64, title, content string, number int) (*model.RecipeInstruction, error) {
	if title == "" {
		return nil, model.Invalid("title", "must not be empty")
	}
	if content == "" {
		return nil, model.Invalid("content", "must not be empty")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOwnedRecipe(ctx, tx, accountID, recipeID); err != nil {
		return nil, err
	}

	at, err := insertOrdered(ctx, tx, "recipe_instructions", recipeID, number, limits.RecipeInstructions)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO recipe_instructions (recipe_id, title, content, position) VALUES (?, ?, ?, ?)`,
		recipeID, title, content, at,
	)
	if err != nil {
		return nil, fmt.Errorf("adding recipe instruction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting recipe instruction id: %w", err)
	}

	if err := resetStatus(ctx, tx, recipeID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing recipe instruction: %w", err)
	}
	return &model.RecipeInstruction{ID: id, RecipeID: recipeID, Title: title, Content: content, Position: at}, nil
}

// InstructionUpdate holds the instruction fields to change; nil fields are
// kept.
type InstructionUpdate struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Number  *int    `json:"number"`
}

// UpdateRecipeInstruction edits and/or moves one of the account's recipe
// instructions.
func UpdateRecipeInstruction(ctx context.Context, db *sql.DB, accountID, instructionID int64, u InstructionUpdate) error {
	if u.Title != nil && *u.Title == "" {
		return model.Invalid("title", "must not be empty")
	}
	if u.Content != nil && *u.Content == "" {
		return model.Invalid("content", "must not be empty")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOrderedOwner(ctx, tx, "recipe_instructions", instructionID, accountID); err != nil {
		return err
	}

	changed := false
	if u.Number != nil {
		moved, err := moveOrdered(ctx, tx, "recipe_instructions", instructionID, *u.Number)
		if err != nil {
			return err
		}
		changed = moved
	}
	if u.Title != nil || u.Content != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE recipe_instructions SET title = COALESCE(?, title), content = COALESCE(?, content) WHERE id = ?`,
			u.Title, u.Content, instructionID,
		); err != nil {
			return fmt.Errorf("updating recipe instruction: %w", err)
		}
		changed = true
	}

	if changed {
		recipeID, _, err := orderedPosition(ctx, tx, "recipe_instructions", instructionID)
		if err != nil {
			return err
		}
		if err := resetStatus(ctx, tx, recipeID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing recipe instruction update: %w", err)
	}
	return nil
}

// DeleteRecipeInstruction removes one of the account's recipe instructions
// and closes the numbering gap.
func DeleteRecipeInstruction(ctx context.Context, db *sql.DB, accountID, instructionID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockOrderedOwner(ctx, tx, "recipe_instructions", instructionID, accountID); err != nil {
		return err
	}

	recipeID, _, err := orderedPosition(ctx, tx, "recipe_instructions", instructionID)
	if err != nil {
		return err
	}
	if err := deleteOrdered(ctx, tx, "recipe_instructions", instructionID); err != nil {
		return err
	}
	if err := resetStatus(ctx, tx, recipeID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing recipe instruction deletion: %w", err)
	}
	return nil
}

// ListRecipeInstructions returns a recipe's instructions in order.
func ListRecipeInstructions(ctx context.Context, db *sql.DB, recipeID int64) ([]model.RecipeInstruction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, recipe_id, title, content, position FROM recipe_instructions WHERE recipe_id = ? ORDER BY position`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recipe instructions: %w", err)
	}
	defer rows.Close()

	instructions := []model.RecipeInstruction{}
	for rows.Next() {
		var i model.RecipeInstruction
		if err := rows.Scan(&i.ID, &i.RecipeID, &i.Title, &i.Content, &i.Position); err != nil {
			return nil, fmt.Errorf("scanning recipe instruction: %w", err)
		}
		instructions = append(instructions, i)
	}
	return instructions, rows.Err()
}
