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

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	DB     *sql.DB
	Media  *media.Store
	Limits config.Limits
}

// Me handles GET /api/accounts/me. Unlike other account views it includes
// the email.
func (h *AccountsHandler) Me(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, GetIdentity(r.Context()).Account)
}

// Update handles PUT /api/accounts/me.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req store.AccountUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.UpdateAccount(r.Context(), h.DB, id.Account.ID, req); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("account updated", "account", id.Account.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "account updated"})
}

// Delete handles DELETE /api/accounts/me.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	photos, err := store.DeleteAccount(r.Context(), h.DB, id.Account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Media.Remove(photos...)

	slog.Info("account deleted", "account", id.Account.ID)
	noContent(w)
}

// SetPhoto handles PUT /api/accounts/me/photo.
func (h *AccountsHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	name, ok := replacePhoto(w, r, h.Media, func(name string) (string, error) {
		return store.SetAccountPhoto(r.Context(), h.DB, id.Account.ID, name)
	})
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"photo": name})
}

// Get handles GET /api/accounts/{id}. Moderators also see report counts.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := store.GetAccountStats(r.Context(), h.DB, accountID, GetIdentity(r.Context()).Moderator())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if a == nil {
		jsonError(w, http.StatusNotFound, "account not found")
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// List handles GET /api/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	onlyModerators, err := boolParam(r.URL.Query(), "moderators")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	page, err := store.ListAccounts(r.Context(), h.DB, p, store.AccountFilter{
		Moderator:      id.Moderator(),
		OnlyModerators: onlyModerators && id.Admin,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// ToggleModerator handles PUT /api/accounts/{id}/moderator.
func (h *AccountsHandler) ToggleModerator(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	moderator, err := store.ToggleModerator(r.Context(), h.DB, accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("moderator toggled", "account", accountID, "moderator", moderator)
	jsonResponse(w, http.StatusOK, map[string]bool{"moderator": moderator})
}

// Report handles POST /api/accounts/{id}/reports.
func (h *AccountsHandler) Report(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if err := store.ReportAccount(r.Context(), h.DB, h.Limits, id.Account.ID, accountID); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("account reported", "reporter", id.Account.ID, "reported", accountID)
	created(w, map[string]string{"message": "account reported"})
}

// DismissReports handles DELETE /api/accounts/{id}/reports.
func (h *AccountsHandler) DismissReports(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if err := store.DismissReports(r.Context(), h.DB, accountID, id.Admin); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("reports dismissed", "account", accountID, "moderator", actor(id))
	noContent(w)
}

// Ban handles POST /api/accounts/{id}/ban.
func (h *AccountsHandler) Ban(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := GetIdentity(r.Context())
	if id.Owns(accountID) {
		writeError(w, r, model.Invalid("account", "cannot ban yourself"))
		return
	}

	photos, err := store.BanAccount(r.Context(), h.DB, accountID, id.Admin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Media.Remove(photos...)

	slog.Info("account banned", "account", accountID, "moderator", actor(id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "account banned"})
}

// actor names the identity in log lines.
func actor(id *Identity) any {
	if id.Admin {
		return "admin"
	}
	if id.Account == nil {
		return "anonymous"
	}
	return id.Account.ID
}
