package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rezvoj/RecipeSiteBackend/internal/imaging"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]any{"error": message})
}

// writeError maps a store or validation error to its HTTP status. Anything
// unrecognised is logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	var perr *model.PreconditionError
	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusBadRequest, map[string]any{"error": verr.Message, "field": verr.Field})
	case errors.As(err, &perr):
		body := map[string]any{"error": perr.Reason}
		if len(perr.Details) > 0 {
			body["details"] = perr.Details
		}
		jsonResponse(w, http.StatusConflict, body)
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrForbidden):
		jsonError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, imaging.ErrUnsupported), errors.Is(err, imaging.ErrTooLarge):
		jsonResponse(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "field": "photo"})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return model.Invalid("", "invalid request body")
	}
	return nil
}

// pathID parses the {name} path segment as a record ID.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, model.Invalid(name, "invalid id")
	}
	return id, nil
}

// created answers a successful creation with the new record.
func created(w http.ResponseWriter, v any) {
	jsonResponse(w, http.StatusCreated, v)
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
