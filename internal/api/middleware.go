package api

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rezvoj/RecipeSiteBackend/internal/auth"
	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/store"
)

type contextKey string

const identityKey contextKey = "identity"

// AdminHeader carries the configured admin code. A request presenting it
// acts as admin, with or without an account.
const AdminHeader = "X-Admin-Code"

// Identity is who a request acts as.
type Identity struct {
	// Account is nil for anonymous requests.
	Account *model.Account
	Claims  *auth.Claims
	Admin   bool
}

// Moderator reports moderator rights, which admins always have.
func (id *Identity) Moderator() bool {
	return id.Admin || (id.Account != nil && id.Account.Moderator)
}

// AccountID is the ID of the acting account, 0 when anonymous.
func (id *Identity) AccountID() int64 {
	if id.Account == nil {
		return 0
	}
	return id.Account.ID
}

// Owns reports whether the acting account is accountID.
func (id *Identity) Owns(accountID int64) bool {
	return id.Account != nil && id.Account.ID == accountID
}

// AuthMiddleware resolves the bearer token and admin code of every request.
// Requests without a token pass through anonymously; a token that is
// invalid, revoked or belongs to a banned account is rejected.
func AuthMiddleware(db *sql.DB, secret, adminCode string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := &Identity{}

			if code := r.Header.Get(AdminHeader); code != "" && adminCode != "" {
				id.Admin = subtle.ConstantTimeCompare([]byte(code), []byte(adminCode)) == 1
			}

			if header := r.Header.Get("Authorization"); header != "" {
				tokenStr, ok := strings.CutPrefix(header, "Bearer ")
				if !ok {
					jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
					return
				}

				claims, err := auth.ValidateToken(secret, tokenStr)
				if err != nil {
					jsonError(w, http.StatusUnauthorized, "invalid token")
					return
				}

				revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
				if err != nil {
					writeError(w, r, err)
					return
				}
				if revoked {
					jsonError(w, http.StatusUnauthorized, "token has been revoked")
					return
				}

				account, err := store.GetAccount(r.Context(), db, claims.AccountID)
				if err != nil {
					writeError(w, r, err)
					return
				}
				if account == nil || account.Banned {
					jsonError(w, http.StatusUnauthorized, "invalid token")
					return
				}

				id.Account = account
				id.Claims = claims
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the request's identity; never nil behind
// AuthMiddleware.
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	if id == nil {
		return &Identity{}
	}
	return id
}

// RequireAccount rejects anonymous requests.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()).Account == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireModerator admits moderators and admins.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).Moderator() {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin admits requests carrying the admin code.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).Admin {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
