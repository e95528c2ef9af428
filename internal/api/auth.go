package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rezvoj/RecipeSiteBackend/internal/auth"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/store"
)

// AuthHandler handles registration and token endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	About    string `json:"about"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register handles POST /api/accounts.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !strings.Contains(req.Email, "@") {
		writeError(w, r, model.Invalid("email", "invalid email address"))
		return
	}
	if req.Name == "" {
		writeError(w, r, model.Invalid("name", "must not be empty"))
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := store.CreateAccount(r.Context(), h.DB, req.Email, req.Name, req.About, hash)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("account created", "account", account.ID)
	created(w, tokenResponse{Token: token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	account, err := store.GetAccountByEmail(r.Context(), h.DB, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if account == nil || account.Banned || !auth.CheckPassword(account.PasswordHash, req.Password) {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("account logged in", "account", account.ID)
	jsonResponse(w, http.StatusOK, tokenResponse{Token: token})
}

// Refresh handles POST /api/auth/token: a fresh token for the caller.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	token, err := auth.GenerateToken(h.JWTSecret, id.Account.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, tokenResponse{Token: token})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())
	if err := store.RevokeToken(r.Context(), h.DB, id.Claims.ID, id.Claims.ExpiresAt.Time); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("account logged out", "account", id.Account.ID)
	noContent(w)
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := GetIdentity(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if !auth.CheckPassword(id.Account.PasswordHash, req.CurrentPassword) {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateAccountPassword(r.Context(), h.DB, id.Account.ID, hash); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("account changed password", "account", id.Account.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
