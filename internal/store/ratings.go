package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// MaxStars is the best rating.
const MaxStars = 5

func validStars(stars int) error {
	if stars < 0 || stars > MaxStars {
		return model.Invalid("stars", fmt.Sprintf("must be between 0 and %d", MaxStars))
	}
	return nil
}

// CreateRating rates a published recipe of another account. An account
// rates a recipe at most once.
func CreateRating(ctx context.Context, db *sql.DB, limits config.Limits, accountID, recipeID int64, stars int, content string) (*model.Rating, error) {
	if err := validStars(stars); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockRow(ctx, tx, "accounts", accountID, query.Where("banned = 0")); err != nil {
		return nil, err
	}
	if err := checkRate(ctx, tx, "ratings", accountID, limits.Ratings); err != nil {
		return nil, err
	}

	var owner int64
	err = tx.QueryRowContext(ctx,
		`SELECT account_id FROM recipes WHERE id = ? AND status = 'ACCEPTED'`, recipeID,
	).Scan(&owner)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recipe %d: %w", recipeID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking recipe: %w", err)
	}
	if owner == accountID {
		return nil, model.Precondition("cannot rate own recipe")
	}

	n, err := countRows(ctx, tx, "ratings", query.Where("account_id = ? AND recipe_id = ?", accountID, recipeID))
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, model.Invalid("recipe", "already rated")
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO ratings (account_id, recipe_id, stars, content) VALUES (?, ?, ?, ?)`,
		accountID, recipeID, stars, nullString(content),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rating: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting rating id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing rating: %w", err)
	}
	return GetRating(ctx, db, id)
}

// GetRating returns a rating by ID.
func GetRating(ctx context.Context, db *sql.DB, id int64) (*model.Rating, error) {
	r := &model.Rating{}
	var content sql.NullString
	var edited sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT id, account_id, recipe_id, stars, content, created_at, edited_at FROM ratings WHERE id = ?`, id,
	).Scan(&r.ID, &r.AccountID, &r.RecipeID, &r.Stars, &content, &r.CreatedAt, &edited)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting rating: %w", err)
	}
	r.Content = content.String
	if edited.Valid {
		r.EditedAt = &edited.Time
	}
	return r, nil
}

// RatingUpdate holds the rating fields to change; nil fields are kept.
type RatingUpdate struct {
	Stars   *int    `json:"stars"`
	Content *string `json:"content"`
}

// UpdateRating edits one of the account's ratings and stamps edited_at.
func UpdateRating(ctx context.Context, db *sql.DB, accountID, ratingID int64, u RatingUpdate) error {
	if u.Stars != nil {
		if err := validStars(*u.Stars); err != nil {
			return err
		}
	}

	var content sql.NullString
	if u.Content != nil {
		content = nullString(*u.Content)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE ratings SET stars = COALESCE(?, stars),
		                    content = CASE WHEN ? THEN ? ELSE content END,
		                    edited_at = ?
		 WHERE id = ? AND account_id = ?`,
		u.Stars, u.Content != nil, content, query.FormatTime(time.Now()), ratingID, accountID,
	)
	if err != nil {
		return fmt.Errorf("updating rating: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("rating %d: %w", ratingID, model.ErrNotFound)
	}
	return nil
}

// DeleteRating deletes a rating. Moderators may delete any rating, other
// accounts only their own.
func DeleteRating(ctx context.Context, db *sql.DB, accountID, ratingID int64, moderator bool) error {
	where := query.Where("id = ?", ratingID)
	if !moderator {
		where = query.And(where, query.Where("account_id = ?", accountID))
	}

	result, err := db.ExecContext(ctx, `DELETE FROM ratings WHERE `+where.SQL, where.Args...)
	if err != nil {
		return fmt.Errorf("deleting rating: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("rating %d: %w", ratingID, model.ErrNotFound)
	}
	return nil
}

// LikeRating marks or unmarks a rating as liked by an account.
func LikeRating(ctx context.Context, db *sql.DB, accountID, ratingID int64, like bool) error {
	r, err := GetRating(ctx, db, ratingID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("rating %d: %w", ratingID, model.ErrNotFound)
	}
	if r.AccountID == accountID {
		return model.Precondition("cannot like own rating")
	}

	if like {
		_, err = db.ExecContext(ctx,
			`INSERT OR IGNORE INTO rating_likes (account_id, rating_id) VALUES (?, ?)`,
			accountID, ratingID,
		)
	} else {
		_, err = db.ExecContext(ctx,
			`DELETE FROM rating_likes WHERE account_id = ? AND rating_id = ?`,
			accountID, ratingID,
		)
	}
	if err != nil {
		return fmt.Errorf("updating rating like: %w", err)
	}
	return nil
}

// RatingFilter narrows a rating listing.
type RatingFilter struct {
	RecipeID  int64
	AccountID int64
}

// ListRatings searches, orders and paginates the ratings of published
// recipes.
func ListRatings(ctx context.Context, db *sql.DB, p query.Params, f RatingFilter) (*query.Page[model.RatingStats], error) {
	p.Filters = append(p.Filters, query.Where(
		`EXISTS (SELECT 1 FROM recipes rr WHERE rr.id = ra.recipe_id AND rr.status = 'ACCEPTED')`,
	))
	if f.RecipeID != 0 {
		p.Filters = append(p.Filters, query.Where("ra.recipe_id = ?", f.RecipeID))
	}
	if f.AccountID != 0 {
		p.Filters = append(p.Filters, query.Where("ra.account_id = ?", f.AccountID))
	}
	return query.List(ctx, db, ratings, p, scanRatingStats)
}
