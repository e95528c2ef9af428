package model

import "time"

// Category groups recipes; managed by moderators.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	About     string    `json:"about,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryStats is a category listing row.
type CategoryStats struct {
	Category
	RecipeCount    int `json:"recipe_count"`
	FavouriteCount int `json:"favourite_count"`
}

// Ingredient is a unit-measured cooking ingredient; managed by moderators.
type Ingredient struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	About     string    `json:"about,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IngredientStats is an ingredient listing row.
type IngredientStats struct {
	Ingredient
	RecipeCount int `json:"recipe_count"`
}
