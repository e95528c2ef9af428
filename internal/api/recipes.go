package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/media"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/store"
)

// RecipesHandler handles recipe endpoints and their sub-resources.
type RecipesHandler struct {
	DB     *sql.DB
	Media  *media.Store
	Limits config.Limits
}

type denyRequest struct {
	Message string `json:"message"`
}

type cookRequest struct {
	Servings int `json:"servings"`
}

// List handles GET /api/recipes.
//
// Filters: account, category (repeatable), favourites, cookable and status
// (repeatable). Statuses other than ACCEPTED are only listed for the
// caller's own recipes or for moderators.
func (h *RecipesHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	q := r.URL.Query()
	var f store.RecipeFilter

	if f.AccountID, err = idParam(q, "account"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Categories, err = idsParam(q, "category"); err != nil {
		writeError(w, r, err)
		return
	}
	for _, s := range q["status"] {
		status := model.RecipeStatus(s)
		if !status.Valid() {
			writeError(w, r, model.Invalid("status", "unknown status"))
			return
		}
		f.Statuses = append(f.Statuses, status)
	}
	if len(f.Statuses) > 0 && !id.Moderator() && (f.AccountID == 0 || !id.Owns(f.AccountID)) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	for name, target := range map[string]*int64{"favourites": &f.FavouritesOf, "cookable": &f.CookableBy} {
		on, err := boolParam(q, name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !on {
			continue
		}
		if id.Account == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		*target = id.Account.ID
	}

	page, err := store.ListRecipes(r.Context(), h.DB, p, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Get handles GET /api/recipes/{id}. Unpublished recipes are visible to
// their owner and to moderators only.
func (h *RecipesHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := store.GetRecipeDetail(r.Context(), h.DB, recipeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if d == nil || (d.Status != model.StatusAccepted && !id.Owns(d.AccountID) && !id.Moderator()) {
		jsonError(w, http.StatusNotFound, "recipe not found")
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// Create handles POST /api/recipes.
func (h *RecipesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req store.RecipeInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	recipe, err := store.CreateRecipe(r.Context(), h.DB, h.Limits, id.Account, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe created", "recipe", recipe.ID, "account", id.Account.ID)
	created(w, recipe)
}

// Update handles PUT /api/recipes/{id}.
func (h *RecipesHandler) Update(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req store.RecipeUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if err := store.UpdateRecipe(r.Context(), h.DB, h.Limits, id.Account.ID, recipeID, req); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe updated", "recipe", recipeID, "account", id.Account.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "recipe updated"})
}

// Delete handles DELETE /api/recipes/{id}.
func (h *RecipesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	photos, err := store.DeleteRecipe(r.Context(), h.DB, id.Account.ID, recipeID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Media.Remove(photos...)

	slog.Info("recipe deleted", "recipe", recipeID, "account", id.Account.ID)
	noContent(w)
}

// Submit handles POST /api/recipes/{id}/submit.
func (h *RecipesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	status, err := store.SubmitRecipe(r.Context(), h.DB, id.Account.ID, recipeID, id.Account.Moderator)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe submitted", "recipe", recipeID, "status", status)
	jsonResponse(w, http.StatusOK, map[string]model.RecipeStatus{"status": status})
}

// Accept handles POST /api/recipes/{id}/accept.
func (h *RecipesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.AcceptRecipe(r.Context(), h.DB, recipeID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe accepted", "recipe", recipeID, "moderator", actor(GetIdentity(r.Context())))
	jsonResponse(w, http.StatusOK, map[string]model.RecipeStatus{"status": model.StatusAccepted})
}

// Deny handles POST /api/recipes/{id}/deny.
func (h *RecipesHandler) Deny(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req denyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.DenyRecipe(r.Context(), h.DB, recipeID, req.Message); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe denied", "recipe", recipeID, "moderator", actor(GetIdentity(r.Context())))
	jsonResponse(w, http.StatusOK, map[string]model.RecipeStatus{"status": model.StatusDenied})
}

// Favourite handles PUT and DELETE /api/recipes/{id}/favourite.
func (h *RecipesHandler) Favourite(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if err := store.FavouriteRecipe(r.Context(), h.DB, id.Account.ID, recipeID, r.Method == http.MethodPut); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// Cook handles POST /api/recipes/{id}/cook: the recipe's ingredients for
// the requested servings leave the caller's inventory, or nothing does.
func (h *RecipesHandler) Cook(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	req := cookRequest{Servings: 1}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}

	id := GetIdentity(r.Context())
	if err := store.CookRecipe(r.Context(), h.DB, id.Account.ID, recipeID, req.Servings); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe cooked", "recipe", recipeID, "account", id.Account.ID, "servings", req.Servings)
	inventory, err := store.ListInventory(r.Context(), h.DB, id.Account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, inventory)
}
