package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/store"
)

// appendNumber places new photos and instructions last when the request
// names no number; insertion clamps it to the end of the sequence.
const appendNumber = math.MaxInt32

type instructionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Number  *int   `json:"number"`
}

type ledgerRequest struct {
	IngredientID int64           `json:"ingredient_id"`
	Amount       decimal.Decimal `json:"amount"`
}

type ledgerResponse struct {
	IngredientID int64           `json:"ingredient_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// formNumber reads the optional "number" form field of a photo upload.
func formNumber(r *http.Request) (*int, error) {
	raw := r.FormValue("number")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, model.Invalid("number", "must be an integer")
	}
	return &n, nil
}

// AddPhoto handles POST /api/recipes/{id}/photos (multipart: photo, number).
func (h *RecipesHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	name, err := uploadPhoto(w, r, h.Media, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	number, err := formNumber(r)
	if err != nil {
		h.Media.Remove(name)
		writeError(w, r, err)
		return
	}
	at := appendNumber
	if number != nil {
		at = *number
	}

	id := GetIdentity(r.Context())
	photo, err := store.AddRecipePhoto(r.Context(), h.DB, h.Limits, id.Account.ID, recipeID, name, at)
	if err != nil {
		h.Media.Remove(name)
		writeError(w, r, err)
		return
	}

	slog.Info("recipe photo added", "recipe", recipeID, "photo", photo.ID, "number", photo.Position)
	created(w, photo)
}

// UpdatePhoto handles PUT /api/photos/{id}: a new file, a new number, or
// both.
func (h *RecipesHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	name, err := uploadPhoto(w, r, h.Media, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var u store.PhotoUpdate
	if name != "" {
		u.Photo = &name
	}
	if u.Number, err = formNumber(r); err != nil {
		h.Media.Remove(name)
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	old, err := store.UpdateRecipePhoto(r.Context(), h.DB, id.Account.ID, photoID, u)
	if err != nil {
		h.Media.Remove(name)
		writeError(w, r, err)
		return
	}
	h.Media.Remove(old)

	slog.Info("recipe photo updated", "photo", photoID, "account", id.Account.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo updated"})
}

// DeletePhoto handles DELETE /api/photos/{id}.
func (h *RecipesHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	old, err := store.DeleteRecipePhoto(r.Context(), h.DB, id.Account.ID, photoID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Media.Remove(old)

	slog.Info("recipe photo deleted", "photo", photoID, "account", id.Account.ID)
	noContent(w)
}

// AddInstruction handles POST /api/recipes/{id}/instructions.
func (h *RecipesHandler) AddInstruction(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req instructionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	at := appendNumber
	if req.Number != nil {
		at = *req.Number
	}

	id := GetIdentity(r.Context())
	in, err := store.AddRecipeInstruction(r.Context(), h.DB, h.Limits, id.Account.ID, recipeID, req.Title, req.Content, at)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe instruction added", "recipe", recipeID, "instruction", in.ID, "number", in.Position)
	created(w, in)
}

// UpdateInstruction handles PUT /api/instructions/{id}.
func (h *RecipesHandler) UpdateInstruction(w http.ResponseWriter, r *http.Request) {
	instructionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req store.InstructionUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if err := store.UpdateRecipeInstruction(r.Context(), h.DB, id.Account.ID, instructionID, req); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe instruction updated", "instruction", instructionID, "account", id.Account.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "instruction updated"})
}

// DeleteInstruction handles DELETE /api/instructions/{id}.
func (h *RecipesHandler) DeleteInstruction(w http.ResponseWriter, r *http.Request) {
	instructionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if err := store.DeleteRecipeInstruction(r.Context(), h.DB, id.Account.ID, instructionID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe instruction deleted", "instruction", instructionID, "account", id.Account.ID)
	noContent(w)
}

// MergeIngredient handles POST /api/recipes/{id}/ingredients: a signed
// per-serving amount merged into the recipe's line for the ingredient.
func (h *RecipesHandler) MergeIngredient(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req ledgerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	amount, err := store.MergeRecipeIngredient(r.Context(), h.DB, h.Limits, id.Account.ID, recipeID, req.IngredientID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("recipe ingredient merged", "recipe", recipeID, "ingredient", req.IngredientID, "amount", amount)
	jsonResponse(w, http.StatusOK, ledgerResponse{IngredientID: req.IngredientID, Amount: amount})
}

// Inventory handles GET /api/inventory.
func (h *RecipesHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	lines, err := store.ListInventory(r.Context(), h.DB, id.Account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, lines)
}

// MergeInventory handles POST /api/inventory.
func (h *RecipesHandler) MergeInventory(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	amount, err := store.MergeInventory(r.Context(), h.DB, h.Limits, id.Account.ID, req.IngredientID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, ledgerResponse{IngredientID: req.IngredientID, Amount: amount})
}
