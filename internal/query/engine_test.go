package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezvoj/RecipeSiteBackend/internal/db"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

type recipeRow struct {
	ID          int64
	Name        string
	RatingCount int
}

var testRecipes = &Descriptor{
	From:    "recipes r",
	Key:     "r.id",
	Columns: []string{"r.id", "r.name"},
	Search:  []string{"r.name", "r.title"},
	Sorts:   map[string]string{"name": "r.name", "created_at": "r.created_at"},
	Stats: []Stat{{
		Name: "rating_count",
		Aggregate: Aggregate{
			Func:  Count,
			Value: "ra.id",
			From:  "ratings ra",
			Link:  "ra.recipe_id = r.id",
			Stamp: "ra.created_at",
		},
	}},
}

func scanRecipeRow(s Scanner) (recipeRow, error) {
	var r recipeRow
	err := s.Scan(&r.ID, &r.Name, &r.RatingCount)
	return r, err
}

func seedAccount(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	res, err := database.Exec(
		`INSERT INTO accounts (email, name, password_hash) VALUES (?, ?, 'x')`,
		name+"@example.com", name,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedRecipe(t *testing.T, database *sql.DB, owner int64, name, title string) int64 {
	t.Helper()
	res, err := database.Exec(
		`INSERT INTO recipes (account_id, name, title, prep_time, calories, status)
		 VALUES (?, ?, ?, 10, 100, 'ACCEPTED')`,
		owner, name, title,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedRating(t *testing.T, database *sql.DB, account, recipe int64, at time.Time) {
	t.Helper()
	_, err := database.Exec(
		`INSERT INTO ratings (account_id, recipe_id, stars, created_at) VALUES (?, ?, 4, ?)`,
		account, recipe, FormatTime(at),
	)
	require.NoError(t, err)
}

func ids(rows []recipeRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestListSearch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := seedAccount(t, database, "owner")
	pie := seedRecipe(t, database, owner, "Apple Pie", "Grandma's classic")
	seedRecipe(t, database, owner, "Banana Bread", "Quick loaf")

	for _, search := range []string{"Apples's Pies", "pie apple", "APPLE", "grandma"} {
		page, err := List(ctx, database, testRecipes, Params{Search: search, Page: 1, PageSize: 10}, scanRecipeRow)
		require.NoError(t, err, search)
		assert.Equal(t, 1, page.Count, search)
		assert.Equal(t, []int64{pie}, ids(page.Results), search)
	}

	page, err := List(ctx, database, testRecipes, Params{Search: "apple bread", Page: 1, PageSize: 10}, scanRecipeRow)
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.NotNil(t, page.Results)
}

func TestListSearchFoldsUnicode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := seedAccount(t, database, "owner")
	eclair := seedRecipe(t, database, owner, "Éclair", "Choux pastry")
	creme := seedRecipe(t, database, owner, "Crème brûlée", "Torched custard")
	seedRecipe(t, database, owner, "Eclipse Cake", "Dark chocolate")

	tests := map[string][]int64{
		"éclair":       {eclair},
		"ÉCLAIR":       {eclair},
		"Éclairs":      {eclair},
		"CHOUX":        {eclair},
		"CRÈME BRÛLÉE": {creme},
		"brûlée crème": {creme},
	}
	for search, want := range tests {
		page, err := List(ctx, database, testRecipes, Params{Search: search, Page: 1, PageSize: 10}, scanRecipeRow)
		require.NoError(t, err, search)
		assert.Equal(t, len(want), page.Count, search)
		assert.Equal(t, want, ids(page.Results), search)
	}
}

func TestListWindowedOrdering(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	owner := seedAccount(t, database, "owner")
	stale := seedRecipe(t, database, owner, "Stale", "rated long ago")
	fresh := seedRecipe(t, database, owner, "Fresh", "rated recently")

	for i := range 4 {
		rater := seedAccount(t, database, fmt.Sprintf("rater%d", i))
		seedRating(t, database, rater, stale, now.AddDate(0, 0, -11-i))
		seedRating(t, database, rater, fresh, now.AddDate(0, 0, -i))
	}

	params := Params{OrderBy: []string{"-rating_count"}, Page: 1, PageSize: 10, Now: now}

	page, err := List(ctx, database, testRecipes, params, scanRecipeRow)
	require.NoError(t, err)
	assert.Equal(t, []int64{stale, fresh}, ids(page.Results), "equal totals fall back to the key")

	params.Window = 7
	page, err = List(ctx, database, testRecipes, params, scanRecipeRow)
	require.NoError(t, err)
	assert.Equal(t, []int64{fresh, stale}, ids(page.Results))
	for _, r := range page.Results {
		assert.Equal(t, 4, r.RatingCount, "selected statistic stays unwindowed")
	}
}

func TestListHugeWindow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	owner := seedAccount(t, database, "owner")
	unrated := seedRecipe(t, database, owner, "A", "never rated")
	rated := seedRecipe(t, database, owner, "B", "rated an hour ago")
	seedRating(t, database, seedAccount(t, database, "rater"), rated, now.Add(-time.Hour))

	for _, window := range []int{200000, MaxWindowDays + 1, math.MaxInt} {
		params := Params{OrderBy: []string{"-rating_count"}, Window: window, Page: 1, PageSize: 10, Now: now}
		page, err := List(ctx, database, testRecipes, params, scanRecipeRow)
		require.NoError(t, err, window)
		assert.Equal(t, []int64{rated, unrated}, ids(page.Results), window)
	}
}

func TestListMultipleKeys(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := seedAccount(t, database, "owner")
	b1 := seedRecipe(t, database, owner, "B", "first")
	a := seedRecipe(t, database, owner, "A", "second")
	b2 := seedRecipe(t, database, owner, "B", "third")

	page, err := List(ctx, database, testRecipes, Params{OrderBy: []string{"-name"}, Page: 1, PageSize: 10}, scanRecipeRow)
	require.NoError(t, err)
	assert.Equal(t, []int64{b1, b2, a}, ids(page.Results))

	page, err = List(ctx, database, testRecipes, Params{OrderBy: []string{"name", "-rating_count"}, Page: 1, PageSize: 10}, scanRecipeRow)
	require.NoError(t, err)
	assert.Equal(t, []int64{a, b1, b2}, ids(page.Results))
}

func TestListPagination(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := seedAccount(t, database, "owner")
	var want []int64
	for i := range 7 {
		want = append(want, seedRecipe(t, database, owner, fmt.Sprintf("Recipe %d", i), "t"))
	}

	var got []int64
	for page := 1; page <= 3; page++ {
		p, err := List(ctx, database, testRecipes, Params{Page: page, PageSize: 3}, scanRecipeRow)
		require.NoError(t, err)
		assert.Equal(t, 7, p.Count)
		assert.Equal(t, page, p.Page)
		assert.Equal(t, 3, p.PageSize)
		got = append(got, ids(p.Results)...)
	}
	assert.Equal(t, want, got)

	beyond, err := List(ctx, database, testRecipes, Params{Page: 4, PageSize: 3}, scanRecipeRow)
	require.NoError(t, err)
	assert.Equal(t, 7, beyond.Count)
	assert.Empty(t, beyond.Results)

	empty, err := List(ctx, database, testRecipes, Params{Page: 1, PageSize: 0}, scanRecipeRow)
	require.NoError(t, err)
	assert.Equal(t, 7, empty.Count)
	assert.Empty(t, empty.Results)

	for _, p := range []Params{
		{Page: math.MaxInt/100 + 2, PageSize: 100},
		{Page: math.MaxInt, PageSize: 3},
		{Page: 2, PageSize: math.MaxInt},
	} {
		huge, err := List(ctx, database, testRecipes, p, scanRecipeRow)
		require.NoError(t, err, p.Page)
		assert.Equal(t, 7, huge.Count)
		assert.Empty(t, huge.Results, "page %d of %d", p.Page, p.PageSize)
	}
}

func TestListFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedAccount(t, database, "alice")
	bob := seedAccount(t, database, "bob")
	mine := seedRecipe(t, database, alice, "Soup", "hot")
	seedRecipe(t, database, bob, "Soup", "cold")

	page, err := List(ctx, database, testRecipes, Params{
		Search:   "soup",
		Page:     1,
		PageSize: 10,
		Filters:  []Expr{Where("r.account_id = ?", alice)},
	}, scanRecipeRow)
	require.NoError(t, err)
	assert.Equal(t, []int64{mine}, ids(page.Results))
}

func TestListValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params Params
		field  string
	}{
		{"unknown key", Params{OrderBy: []string{"password_hash"}, Page: 1}, "order_by"},
		{"unknown descending key", Params{OrderBy: []string{"--name"}, Page: 1}, "order_by"},
		{"page zero", Params{Page: 0}, "page"},
		{"negative page size", Params{Page: 1, PageSize: -1}, "page_size"},
		{"negative window", Params{Page: 1, Window: -3}, "order_time_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := List(ctx, database, testRecipes, tt.params, scanRecipeRow)
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
