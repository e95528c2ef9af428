// Package config holds the process configuration: server settings and the
// content limits passed explicitly into store operations.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// Rate caps how many records of one kind an account may create within a
// trailing number of hours.
type Rate struct {
	Count int `json:"count"`
	Hours int `json:"hours"`
}

// Window returns the trailing duration covered by the rate.
func (r Rate) Window() time.Duration {
	return time.Duration(r.Hours) * time.Hour
}

// Limits are the per-recipe content caps and per-account rate limits.
type Limits struct {
	RecipeCategories   int `json:"recipe_categories"`
	RecipePhotos       int `json:"recipe_photos"`
	RecipeInstructions int `json:"recipe_instructions"`
	RecipeIngredients  int `json:"recipe_ingredients"`
	InventoryLines     int `json:"inventory_lines"`

	Recipes          Rate `json:"recipes"`
	ModeratorRecipes Rate `json:"moderator_recipes"`
	Ratings          Rate `json:"ratings"`
	Reports          Rate `json:"reports"`
}

// Config holds all configuration options.
type Config struct {
	DBPath    string `json:"db"`
	Addr      string `json:"addr"`
	MediaDir  string `json:"media_dir"`
	LogPath   string `json:"log,omitempty"`
	AdminCode string `json:"admin_code,omitempty"`
	JWTSecret string `json:"jwt_secret,omitempty"`
	Limits    Limits `json:"limits"`
}

// DefaultLimits returns the limits the site runs with unless configured.
func DefaultLimits() Limits {
	return Limits{
		RecipeCategories:   10,
		RecipePhotos:       10,
		RecipeInstructions: 15,
		RecipeIngredients:  20,
		InventoryLines:     50,
		Recipes:            Rate{Count: 5, Hours: 24},
		ModeratorRecipes:   Rate{Count: 20, Hours: 24},
		Ratings:            Rate{Count: 15, Hours: 24},
		Reports:            Rate{Count: 15, Hours: 24},
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DBPath:   "recipes.sqlite3",
		Addr:     ":8080",
		MediaDir: "media",
		Limits:   DefaultLimits(),
	}
}

var (
	errConfigRead    = errors.New("cannot read config file")
	errConfigInvalid = errors.New("invalid config")
)

// Load returns the defaults overlaid with the JSONC file at path.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", errConfigRead, path)
	}

	if err := Parse(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, nil
}

// Parse decodes JSONC data onto cfg. Fields absent from data keep their
// current values.
func Parse(data []byte, cfg *Config) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}

	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db path must not be empty")
	}
	if c.MediaDir == "" {
		return errors.New("media_dir must not be empty")
	}

	caps := map[string]int{
		"recipe_categories":   c.Limits.RecipeCategories,
		"recipe_photos":       c.Limits.RecipePhotos,
		"recipe_instructions": c.Limits.RecipeInstructions,
		"recipe_ingredients":  c.Limits.RecipeIngredients,
		"inventory_lines":     c.Limits.InventoryLines,
	}
	for name, v := range caps {
		if v < 1 {
			return fmt.Errorf("limits.%s must be at least 1", name)
		}
	}

	rates := map[string]Rate{
		"recipes":           c.Limits.Recipes,
		"moderator_recipes": c.Limits.ModeratorRecipes,
		"ratings":           c.Limits.Ratings,
		"reports":           c.Limits.Reports,
	}
	for name, r := range rates {
		if r.Count < 1 || r.Hours < 1 {
			return fmt.Errorf("limits.%s needs a positive count and hours", name)
		}
	}

	return nil
}
