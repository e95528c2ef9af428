package model

import (
	"fmt"
	"time"
)

// Account represents a registered user of the site.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email,omitempty"`
	Name         string    `json:"name"`
	About        string    `json:"about,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	PasswordHash string    `json:"-"`
	Moderator    bool      `json:"moderator"`
	Banned       bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountStats holds the derived statistics of an account listing row.
type AccountStats struct {
	Account
	RecipeCount int     `json:"recipe_count"`
	RatingCount int     `json:"rating_count"`
	AvgRating   float64 `json:"avg_rating"`
	ReportCount *int    `json:"report_count,omitempty"`
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks the minimal password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	return nil
}
