package store

import (
	"database/sql"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// Listing descriptors, one per record kind. Statistics that reach recipes
// only count accepted ones.

var accountStats = []query.Stat{
	{Name: "recipe_count", Aggregate: query.Aggregate{
		Func: query.Count, Value: "r2.id",
		From: "recipes r2", Link: "r2.account_id = a.id",
		Stamp: "r2.created_at", Accepted: "r2",
	}},
	{Name: "rating_count", Aggregate: query.Aggregate{
		Func: query.Count, Value: "ra.id",
		From: "ratings ra JOIN recipes r2 ON r2.id = ra.recipe_id", Link: "r2.account_id = a.id",
		Stamp: "ra.created_at", Accepted: "r2",
	}},
	{Name: "avg_rating", Aggregate: query.Aggregate{
		Func: query.Avg, Value: "ra.stars",
		From: "ratings ra JOIN recipes r2 ON r2.id = ra.recipe_id", Link: "r2.account_id = a.id",
		Stamp: "ra.created_at", Accepted: "r2",
	}},
}

var reportCountStat = query.Stat{Name: "report_count", Aggregate: query.Aggregate{
	Func: query.Count, Value: "rp.account_id",
	From: "account_reports rp", Link: "rp.reported_id = a.id",
	Stamp: "rp.created_at",
}}

var accountColumns = []string{"a.id", "a.name", "a.about", "a.photo", "a.moderator", "a.created_at"}

var accountSorts = map[string]string{"name": "a.name", "created_at": "a.created_at"}

var publicAccounts = &query.Descriptor{
	From:    "accounts a",
	Key:     "a.id",
	Columns: accountColumns,
	Search:  []string{"a.name"},
	Sorts:   accountSorts,
	Stats:   accountStats,
}

// Moderators additionally see and sort by received reports.
var moderatedAccounts = &query.Descriptor{
	From:    "accounts a",
	Key:     "a.id",
	Columns: accountColumns,
	Search:  []string{"a.name"},
	Sorts:   accountSorts,
	Stats:   append(append([]query.Stat{}, accountStats...), reportCountStat),
}

func scanAccountStats(moderator bool) func(query.Scanner) (model.AccountStats, error) {
	return func(s query.Scanner) (model.AccountStats, error) {
		var a model.AccountStats
		var about, photo sql.NullString
		dest := []any{&a.ID, &a.Name, &about, &photo, &a.Moderator, &a.CreatedAt,
			&a.RecipeCount, &a.RatingCount, &a.AvgRating}
		var reports int
		if moderator {
			dest = append(dest, &reports)
		}
		if err := s.Scan(dest...); err != nil {
			return a, err
		}
		a.About = about.String
		a.Photo = photo.String
		if moderator {
			a.ReportCount = &reports
		}
		return a, nil
	}
}

var categories = &query.Descriptor{
	From:    "categories c",
	Key:     "c.id",
	Columns: []string{"c.id", "c.name", "c.about", "c.photo", "c.created_at"},
	Search:  []string{"c.name", "c.about"},
	Sorts:   map[string]string{"name": "c.name", "created_at": "c.created_at"},
	Stats: []query.Stat{
		{Name: "recipe_count", Aggregate: query.Aggregate{
			Func: query.Count, Value: "rc.recipe_id",
			From: "recipe_categories rc JOIN recipes r2 ON r2.id = rc.recipe_id", Link: "rc.category_id = c.id",
			Stamp: "r2.created_at", Accepted: "r2",
		}},
		{Name: "favourite_count", Aggregate: query.Aggregate{
			Func: query.Count, Value: "f.account_id",
			From: "category_favourites f", Link: "f.category_id = c.id",
			Stamp: "f.created_at",
		}},
	},
}

func scanCategoryStats(s query.Scanner) (model.CategoryStats, error) {
	var c model.CategoryStats
	var about, photo sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &about, &photo, &c.CreatedAt, &c.RecipeCount, &c.FavouriteCount); err != nil {
		return c, err
	}
	c.About = about.String
	c.Photo = photo.String
	return c, nil
}

var ingredients = &query.Descriptor{
	From:    "ingredients i",
	Key:     "i.id",
	Columns: []string{"i.id", "i.name", "i.unit", "i.about", "i.photo", "i.created_at"},
	Search:  []string{"i.name", "i.about"},
	Sorts:   map[string]string{"name": "i.name", "unit": "i.unit", "created_at": "i.created_at"},
	Stats: []query.Stat{
		{Name: "recipe_count", Aggregate: query.Aggregate{
			Func: query.Count, Value: "ri.recipe_id",
			From: "recipe_ingredients ri JOIN recipes r2 ON r2.id = ri.recipe_id", Link: "ri.ingredient_id = i.id",
			Stamp: "r2.created_at", Accepted: "r2",
		}},
	},
}

func scanIngredientStats(s query.Scanner) (model.IngredientStats, error) {
	var i model.IngredientStats
	var about, photo sql.NullString
	if err := s.Scan(&i.ID, &i.Name, &i.Unit, &about, &photo, &i.CreatedAt, &i.RecipeCount); err != nil {
		return i, err
	}
	i.About = about.String
	i.Photo = photo.String
	return i, nil
}

var recipes = &query.Descriptor{
	From: "recipes r",
	Key:  "r.id",
	Columns: []string{
		"r.id", "r.account_id", "r.name", "r.title", "r.prep_time", "r.calories",
		"r.status", "r.deny_message", "r.created_at",
	},
	Search: []string{"r.name", "r.title"},
	Sorts: map[string]string{
		"name": "r.name", "title": "r.title", "prep_time": "r.prep_time",
		"calories": "r.calories", "created_at": "r.created_at",
	},
	Stats: []query.Stat{
		{Name: "rating_count", Aggregate: query.Aggregate{
			Func: query.Count, Value: "ra.id",
			From: "ratings ra", Link: "ra.recipe_id = r.id",
			Stamp: "ra.created_at",
		}},
		{Name: "avg_rating", Aggregate: query.Aggregate{
			Func: query.Avg, Value: "ra.stars",
			From: "ratings ra", Link: "ra.recipe_id = r.id",
			Stamp: "ra.created_at",
		}},
		{Name: "favourite_count", Aggregate: query.Aggregate{
			Func: query.Count, Value: "f.account_id",
			From: "recipe_favourites f", Link: "f.recipe_id = r.id",
			Stamp: "f.created_at",
		}},
	},
}

func scanRecipeStats(s query.Scanner) (model.RecipeStats, error) {
	var r model.RecipeStats
	var denyMessage sql.NullString
	if err := s.Scan(&r.ID, &r.AccountID, &r.Name, &r.Title, &r.PrepTime, &r.Calories,
		&r.Status, &denyMessage, &r.CreatedAt,
		&r.RatingCount, &r.AvgRating, &r.FavouriteCount); err != nil {
		return r, err
	}
	r.DenyMessage = denyMessage.String
	return r, nil
}

var ratings = &query.Descriptor{
	From:    "ratings ra",
	Key:     "ra.id",
	Columns: []string{"ra.id", "ra.account_id", "ra.recipe_id", "ra.stars", "ra.content", "ra.created_at", "ra.edited_at"},
	Search:  []string{"ra.content"},
	Sorts:   map[string]string{"stars": "ra.stars", "created_at": "ra.created_at"},
	Stats: []query.Stat{
		{Name: "like_count", Aggregate: query.Aggregate{
			Func: query.Count, Value: "l.account_id",
			From: "rating_likes l", Link: "l.rating_id = ra.id",
			Stamp: "l.created_at",
		}},
	},
}

func scanRatingStats(s query.Scanner) (model.RatingStats, error) {
	var r model.RatingStats
	var content sql.NullString
	var edited sql.NullTime
	if err := s.Scan(&r.ID, &r.AccountID, &r.RecipeID, &r.Stars, &content, &r.CreatedAt, &edited, &r.LikeCount); err != nil {
		return r, err
	}
	r.Content = content.String
	if edited.Valid {
		r.EditedAt = &edited.Time
	}
	return r, nil
}
