package model

import "time"

// RecipeStatus is the moderation state of a recipe.
type RecipeStatus string

// Recipe statuses.
const (
	StatusUnsubmitted RecipeStatus = "UNSUBMITTED"
	StatusSubmitted   RecipeStatus = "SUBMITTED"
	StatusAccepted    RecipeStatus = "ACCEPTED"
	StatusDenied      RecipeStatus = "DENIED"
)

// Valid reports whether s is one of the recipe statuses.
func (s RecipeStatus) Valid() bool {
	switch s {
	case StatusUnsubmitted, StatusSubmitted, StatusAccepted, StatusDenied:
		return true
	}
	return false
}

// Recipe represents a recipe and its moderation state.
type Recipe struct {
	ID          int64        `json:"id"`
	AccountID   int64        `json:"account_id"`
	Name        string       `json:"name"`
	Title       string       `json:"title"`
	PrepTime    int          `json:"prep_time"`
	Calories    int          `json:"calories"`
	Status      RecipeStatus `json:"status"`
	DenyMessage string       `json:"deny_message,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Categories  []int64      `json:"categories,omitempty"`
}

// RecipeStats is a recipe listing row.
type RecipeStats struct {
	Recipe
	RatingCount    int     `json:"rating_count"`
	AvgRating      float64 `json:"avg_rating"`
	FavouriteCount int     `json:"favourite_count"`
}

// RecipePhoto is an ordered photo of a recipe.
type RecipePhoto struct {
	ID       int64  `json:"id"`
	RecipeID int64  `json:"recipe_id"`
	Photo    string `json:"photo"`
	Position int    `json:"number"`
}

// RecipeInstruction is an ordered preparation step of a recipe.
type RecipeInstruction struct {
	ID       int64  `json:"id"`
	RecipeID int64  `json:"recipe_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Position int    `json:"number"`
}

// RecipeDetail is a recipe with all of its sub-resources.
type RecipeDetail struct {
	RecipeStats
	Photos       []RecipePhoto       `json:"photos"`
	Instructions []RecipeInstruction `json:"instructions"`
	Ingredients  []LedgerLine        `json:"ingredients"`
}
