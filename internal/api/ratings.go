package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/store"
)

// RatingsHandler handles rating endpoints.
type RatingsHandler struct {
	DB     *sql.DB
	Limits config.Limits
}

type createRatingRequest struct {
	Stars   int    `json:"stars"`
	Content string `json:"content"`
}

// List handles GET /api/ratings. Filters: recipe, account.
func (h *RatingsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	var f store.RatingFilter
	if f.RecipeID, err = idParam(q, "recipe"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.AccountID, err = idParam(q, "account"); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := store.ListRatings(r.Context(), h.DB, p, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Create handles POST /api/recipes/{id}/ratings.
func (h *RatingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	rating, err := store.CreateRating(r.Context(), h.DB, h.Limits, id.Account.ID, recipeID, req.Stars, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("rating created", "rating", rating.ID, "recipe", recipeID, "account", id.Account.ID)
	created(w, rating)
}

// Update handles PUT /api/ratings/{id}.
func (h *RatingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ratingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req store.RatingUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if err := store.UpdateRating(r.Context(), h.DB, id.Account.ID, ratingID, req); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("rating updated", "rating", ratingID, "account", id.Account.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "rating updated"})
}

// Delete handles DELETE /api/ratings/{id}. Moderators may delete any
// rating.
func (h *RatingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ratingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if id.Account == nil && !id.Admin {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := store.DeleteRating(r.Context(), h.DB, id.AccountID(), ratingID, id.Moderator()); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("rating deleted", "rating", ratingID, "by", actor(id))
	noContent(w)
}

// Like handles PUT and DELETE /api/ratings/{id}/like.
func (h *RatingsHandler) Like(w http.ResponseWriter, r *http.Request) {
	ratingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if err := store.LikeRating(r.Context(), h.DB, id.Account.ID, ratingID, r.Method == http.MethodPut); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}
