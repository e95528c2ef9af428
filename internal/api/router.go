package api

import (
	"database/sql"
	"net/http"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/media"
)

// Options are the settings the router needs beyond the database.
type Options struct {
	JWTSecret string
	AdminCode string
	Limits    config.Limits
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, files *media.Store, opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: opts.JWTSecret}
	accountsHandler := &AccountsHandler{DB: db, Media: files, Limits: opts.Limits}
	categoriesHandler := &CategoriesHandler{DB: db, Media: files}
	ingredientsHandler := &IngredientsHandler{DB: db, Media: files}
	recipesHandler := &RecipesHandler{DB: db, Media: files, Limits: opts.Limits}
	ratingsHandler := &RatingsHandler{DB: db, Limits: opts.Limits}

	user := func(h http.HandlerFunc) http.Handler { return RequireAccount(h) }
	moderator := func(h http.HandlerFunc) http.Handler { return RequireModerator(h) }
	admin := func(h http.HandlerFunc) http.Handler { return RequireAdmin(h) }

	// Auth.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/token", user(authHandler.Refresh))
	mux.Handle("POST /api/auth/logout", user(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", user(authHandler.ChangePassword))

	// Accounts.
	mux.HandleFunc("POST /api/accounts", authHandler.Register)
	mux.HandleFunc("GET /api/accounts", accountsHandler.List)
	mux.Handle("GET /api/accounts/me", user(accountsHandler.Me))
	mux.Handle("PUT /api/accounts/me", user(accountsHandler.Update))
	mux.Handle("DELETE /api/accounts/me", user(accountsHandler.Delete))
	mux.Handle("PUT /api/accounts/me/photo", user(accountsHandler.SetPhoto))
	mux.HandleFunc("GET /api/accounts/{id}", accountsHandler.Get)
	mux.Handle("PUT /api/accounts/{id}/moderator", admin(accountsHandler.ToggleModerator))
	mux.Handle("POST /api/accounts/{id}/reports", user(accountsHandler.Report))
	mux.Handle("DELETE /api/accounts/{id}/reports", moderator(accountsHandler.DismissReports))
	mux.Handle("POST /api/accounts/{id}/ban", moderator(accountsHandler.Ban))

	// Categories: read (all), write (moderator+).
	mux.HandleFunc("GET /api/categories", categoriesHandler.List)
	mux.HandleFunc("GET /api/categories/{id}", categoriesHandler.Get)
	mux.Handle("POST /api/categories", moderator(categoriesHandler.Create))
	mux.Handle("PUT /api/categories/{id}", moderator(categoriesHandler.Update))
	mux.Handle("PUT /api/categories/{id}/photo", moderator(categoriesHandler.SetPhoto))
	mux.Handle("DELETE /api/categories/{id}", moderator(categoriesHandler.Delete))
	mux.Handle("PUT /api/categories/{id}/favourite", user(categoriesHandler.Favourite))
	mux.Handle("DELETE /api/categories/{id}/favourite", user(categoriesHandler.Favourite))

	// Ingredients: read (all), write (moderator+).
	mux.HandleFunc("GET /api/ingredients", ingredientsHandler.List)
	mux.HandleFunc("GET /api/ingredients/{id}", ingredientsHandler.Get)
	mux.Handle("POST /api/ingredients", moderator(ingredientsHandler.Create))
	mux.Handle("PUT /api/ingredients/{id}", moderator(ingredientsHandler.Update))
	mux.Handle("PUT /api/ingredients/{id}/photo", moderator(ingredientsHandler.SetPhoto))
	mux.Handle("DELETE /api/ingredients/{id}", moderator(ingredientsHandler.Delete))

	// Recipes.
	mux.HandleFunc("GET /api/recipes", recipesHandler.List)
	mux.HandleFunc("GET /api/recipes/{id}", recipesHandler.Get)
	mux.Handle("POST /api/recipes", user(recipesHandler.Create))
	mux.Handle("PUT /api/recipes/{id}", user(recipesHandler.Update))
	mux.Handle("DELETE /api/recipes/{id}", user(recipesHandler.Delete))
	mux.Handle("POST /api/recipes/{id}/submit", user(recipesHandler.Submit))
	mux.Handle("POST /api/recipes/{id}/accept", moderator(recipesHandler.Accept))
	mux.Handle("POST /api/recipes/{id}/deny", moderator(recipesHandler.Deny))
	mux.Handle("PUT /api/recipes/{id}/favourite", user(recipesHandler.Favourite))
	mux.Handle("DELETE /api/recipes/{id}/favourite", user(recipesHandler.Favourite))
	mux.Handle("POST /api/recipes/{id}/cook", user(recipesHandler.Cook))

	// Recipe content, owner only.
	mux.Handle("POST /api/recipes/{id}/photos", user(recipesHandler.AddPhoto))
	mux.Handle("PUT /api/photos/{id}", user(recipesHandler.UpdatePhoto))
	mux.Handle("DELETE /api/photos/{id}", user(recipesHandler.DeletePhoto))
	mux.Handle("POST /api/recipes/{id}/instructions", user(recipesHandler.AddInstruction))
	mux.Handle("PUT /api/instructions/{id}", user(recipesHandler.UpdateInstruction))
	mux.Handle("DELETE /api/instructions/{id}", user(recipesHandler.DeleteInstruction))
	mux.Handle("POST /api/recipes/{id}/ingredients", user(recipesHandler.MergeIngredient))

	// Inventory.
	mux.Handle("GET /api/inventory", user(recipesHandler.Inventory))
	mux.Handle("POST /api/inventory", user(recipesHandler.MergeInventory))

	// Ratings.
	mux.HandleFunc("GET /api/ratings", ratingsHandler.List)
	mux.Handle("POST /api/recipes/{id}/ratings", user(ratingsHandler.Create))
	mux.Handle("PUT /api/ratings/{id}", user(ratingsHandler.Update))
	mux.HandleFunc("DELETE /api/ratings/{id}", ratingsHandler.Delete)
	mux.Handle("PUT /api/ratings/{id}/like", user(ratingsHandler.Like))
	mux.Handle("DELETE /api/ratings/{id}/like", user(ratingsHandler.Like))

	// Media.
	mux.Handle("GET /media/", http.StripPrefix("/media", files.Handler()))

	return LoggingMiddleware(AuthMiddleware(db, opts.JWTSecret, opts.AdminCode)(mux))
}
