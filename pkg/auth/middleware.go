package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/govmetrics/govdash/pkg/session"
)

// DefaultCookieName is the session cookie name when none is configured.
const DefaultCookieName = "govdash_session"

// Middleware resolves the request identity from either the session cookie
// or a Bearer API token and injects it into the request context.
type Middleware struct {
	Users      *UserStore
	Sessions   session.Store
	Tokens     *TokenIssuer
	CookieName string
}

// cookieName returns the configured cookie name or the default.
func (m *Middleware) cookieName() string {
	if m.CookieName == "" {
		return DefaultCookieName
	}
	return m.CookieName
}

// resolve returns the authenticated user for the request, or nil when the
// request carries no valid credentials. Store errors are surfaced.
func (m *Middleware) resolve(r *http.Request) (*User, error) {
	if cookie, err := r.Cookie(m.cookieName()); err == nil && cookie.Value != "" {
		sess, err := m.Sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			if err := m.Sessions.Touch(r.Context(), sess.ID); err != nil {
				slog.Error("touching session", "error", err)
			}
			return m.Users.GetByID(r.Context(), sess.UserID)
		}
	}

	if m.Tokens != nil {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			claims, err := m.Tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				// Invalid token is an anonymous request, not a server error.
				return nil, nil //nolint:nilnil
			}
			return m.Users.GetByID(r.Context(), claims.Subject)
		}
	}

	return nil, nil //nolint:nilnil
}

// Require rejects unauthenticated requests with 401 and otherwise passes
// the user through the request context.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			slog.Error("resolving request identity", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin is Require plus an admin-role check.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFrom(r.Context())
		if user == nil || !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
