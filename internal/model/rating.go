package model

import "time"

// Rating is an account's review of an accepted recipe.
type Rating struct {
	ID        int64      `json:"id"`
	AccountID int64      `json:"account_id"`
	RecipeID  int64      `json:"recipe_id"`
	Stars     int        `json:"stars"`
	Content   string     `json:"content,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// RatingStats is a rating listing row.
type RatingStats struct {
	Rating
	LikeCount int `json:"like_count"`
}
