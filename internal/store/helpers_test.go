package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

var testLimits = config.DefaultLimits()

func newAccount(t *testing.T, database *sql.DB, name string, moderator bool) *model.Account {
	t.Helper()
	ctx := context.Background()

	a, err := CreateAccount(ctx, database, name+"@example.com", name, "", "hash")
	if err != nil {
		t.Fatalf("CreateAccount(%s): %v", name, err)
	}
	if moderator {
		if _, err := ToggleModerator(ctx, database, a.ID); err != nil {
			t.Fatalf("ToggleModerator: %v", err)
		}
		a.Moderator = true
	}
	return a
}

func newCategory(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	c, err := CreateCategory(context.Background(), database, name, "")
	if err != nil {
		t.Fatalf("CreateCategory(%s): %v", name, err)
	}
	return c.ID
}

func newIngredient(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	i, err := CreateIngredient(context.Background(), database, name, "g", "")
	if err != nil {
		t.Fatalf("CreateIngredient(%s): %v", name, err)
	}
	return i.ID
}

func newRecipe(t *testing.T, database *sql.DB, owner *model.Account, name string, categories ...int64) int64 {
	t.Helper()
	r, err := CreateRecipe(context.Background(), database, testLimits, owner, RecipeInput{
		Name: name, Title: name + " title", PrepTime: 10, Calories: 200, Categories: categories,
	})
	if err != nil {
		t.Fatalf("CreateRecipe(%s): %v", name, err)
	}
	return r.ID
}

// publishedRecipe creates a recipe with complete content and publishes it.
func publishedRecipe(t *testing.T, database *sql.DB, owner *model.Account, name string) int64 {
	t.Helper()
	ctx := context.Background()

	id := newRecipe(t, database, owner, name, newCategory(t, database, name+" category"))
	if _, err := AddRecipePhoto(ctx, database, testLimits, owner.ID, id, name+".jpg", 1); err != nil {
		t.Fatalf("AddRecipePhoto: %v", err)
	}
	if _, err := AddRecipeInstruction(ctx, database, testLimits, owner.ID, id, "Cook", "Cook it.", 1); err != nil {
		t.Fatalf("AddRecipeInstruction: %v", err)
	}
	ingredient := newIngredient(t, database, name+" ingredient")
	if _, err := MergeRecipeIngredient(ctx, database, testLimits, owner.ID, id, ingredient, dec("1")); err != nil {
		t.Fatalf("MergeRecipeIngredient: %v", err)
	}
	if _, err := SubmitRecipe(ctx, database, owner.ID, id, true); err != nil {
		t.Fatalf("SubmitRecipe: %v", err)
	}
	return id
}

func forceStatus(t *testing.T, database *sql.DB, recipeID int64, status model.RecipeStatus, message string) {
	t.Helper()
	_, err := database.Exec(`UPDATE recipes SET status = ?, deny_message = ? WHERE id = ?`,
		status, nullString(message), recipeID)
	if err != nil {
		t.Fatalf("forcing status: %v", err)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func positions(t *testing.T, database *sql.DB, table string, recipeID int64) map[int64]int {
	t.Helper()
	rows, err := database.Query(fmt.Sprintf(`SELECT id, position FROM %s WHERE recipe_id = ?`, table), recipeID)
	if err != nil {
		t.Fatalf("reading positions: %v", err)
	}
	defer rows.Close()

	got := map[int64]int{}
	for rows.Next() {
		var id int64
		var pos int
		if err := rows.Scan(&id, &pos); err != nil {
			t.Fatalf("scanning position: %v", err)
		}
		got[id] = pos
	}
	return got
}
