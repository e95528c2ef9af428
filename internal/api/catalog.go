package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/rezvoj/RecipeSiteBackend/internal/media"
	"github.com/rezvoj/RecipeSiteBackend/internal/store"
)

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	DB    *sql.DB
	Media *media.Store
}

type createCategoryRequest struct {
	Name  string `json:"name"`
	About string `json:"about"`
}

// List handles GET /api/categories. favourites=true narrows to the
// caller's favourites.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	favourites, err := boolParam(r.URL.Query(), "favourites")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var f store.CategoryFilter
	if favourites {
		id := GetIdentity(r.Context())
		if id.Account == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		f.FavouritesOf = id.Account.ID
	}

	page, err := store.ListCategories(r.Context(), h.DB, p, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Get handles GET /api/categories/{id}.
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := store.GetCategoryStats(r.Context(), h.DB, categoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "category not found")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := store.CreateCategory(r.Context(), h.DB, req.Name, req.About)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("category created", "category", c.ID, "moderator", actor(GetIdentity(r.Context())))
	created(w, c)
}

// Update handles PUT /api/categories/{id}.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req store.CategoryUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.UpdateCategory(r.Context(), h.DB, categoryID, req); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("category updated", "category", categoryID, "moderator", actor(GetIdentity(r.Context())))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "category updated"})
}

// SetPhoto handles PUT /api/categories/{id}/photo.
func (h *CategoriesHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	name, ok := replacePhoto(w, r, h.Media, func(name string) (string, error) {
		return store.SetCategoryPhoto(r.Context(), h.DB, categoryID, name)
	})
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"photo": name})
}

// Delete handles DELETE /api/categories/{id}. Categories used by published
// recipes need the admin code.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	photo, err := store.DeleteCategory(r.Context(), h.DB, categoryID, id.Admin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Media.Remove(photo)

	slog.Info("category deleted", "category", categoryID, "moderator", actor(id))
	noContent(w)
}

// Favourite handles PUT and DELETE /api/categories/{id}/favourite.
func (h *CategoriesHandler) Favourite(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	on := r.Method == http.MethodPut
	if err := store.FavouriteCategory(r.Context(), h.DB, id.Account.ID, categoryID, on); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// IngredientsHandler handles ingredient endpoints.
type IngredientsHandler struct {
	DB    *sql.DB
	Media *media.Store
}

type createIngredientRequest struct {
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	About string `json:"about"`
}

// List handles GET /api/ingredients. held=true narrows to the ingredients
// in the caller's inventory.
func (h *IngredientsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	held, err := boolParam(r.URL.Query(), "held")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var f store.IngredientFilter
	if held {
		id := GetIdentity(r.Context())
		if id.Account == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		f.HeldBy = id.Account.ID
	}

	page, err := store.ListIngredients(r.Context(), h.DB, p, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Get handles GET /api/ingredients/{id}.
func (h *IngredientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ingredientID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	i, err := store.GetIngredientStats(r.Context(), h.DB, ingredientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if i == nil {
		jsonError(w, http.StatusNotFound, "ingredient not found")
		return
	}
	jsonResponse(w, http.StatusOK, i)
}

// Create handles POST /api/ingredients.
func (h *IngredientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	i, err := store.CreateIngredient(r.Context(), h.DB, req.Name, req.Unit, req.About)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("ingredient created", "ingredient", i.ID, "moderator", actor(GetIdentity(r.Context())))
	created(w, i)
}

// Update handles PUT /api/ingredients/{id}.
func (h *IngredientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ingredientID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req store.IngredientUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.UpdateIngredient(r.Context(), h.DB, ingredientID, req); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("ingredient updated", "ingredient", ingredientID, "moderator", actor(GetIdentity(r.Context())))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "ingredient updated"})
}

// SetPhoto handles PUT /api/ingredients/{id}/photo.
func (h *IngredientsHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	ingredientID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	name, ok := replacePhoto(w, r, h.Media, func(name string) (string, error) {
		return store.SetIngredientPhoto(r.Context(), h.DB, ingredientID, name)
	})
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"photo": name})
}

// Delete handles DELETE /api/ingredients/{id}. Ingredients used by
// published recipes need the admin code.
func (h *IngredientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ingredientID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	photo, err := store.DeleteIngredient(r.Context(), h.DB, ingredientID, id.Admin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Media.Remove(photo)

	slog.Info("ingredient deleted", "ingredient", ingredientID, "moderator", actor(id))
	noContent(w)
}
