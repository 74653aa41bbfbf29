package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/govmetrics/govdash/pkg/session"
)

// Handler provides the login/logout/me HTTP endpoints.
type Handler struct {
	users      *UserStore
	sessions   session.Store
	tokens     *TokenIssuer
	cookieName string
	ttl        time.Duration
}

// HandlerConfig configures the auth handler.
type HandlerConfig struct {
	CookieName string
	SessionTTL time.Duration
}

// NewHandler creates the auth HTTP handler.
func NewHandler(users *UserStore, sessions session.Store, tokens *TokenIssuer, cfg HandlerConfig) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Handler{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		cookieName: cfg.CookieName,
		ttl:        cfg.SessionTTL,
	}
}

// Register registers the auth routes. Me is wrapped by the caller-supplied
// middleware so it shares identity resolution with the admin routes.
func (h *Handler) Register(mux *http.ServeMux, mw *Middleware) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.Handle("GET /api/auth/me", mw.Require(http.HandlerFunc(h.Me)))
}

// loginRequest is the login payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse returns the authenticated user and an API token for
// programmatic clients alongside the session cookie.
type loginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		slog.Error("authenticating user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	id, err := session.NewID()
	if err != nil {
		slog.Error("generating session id", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now()
	sess := &session.Session{
		ID:           id,
		UserID:       user.ID,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(h.ttl),
	}
	if err := h.sessions.Create(r.Context(), sess); err != nil {
		slog.Error("creating session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    id,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	resp := loginResponse{User: user}
	if h.tokens != nil {
		token, err := h.tokens.Issue(user)
		if err != nil {
			slog.Error("issuing api token", "error", err)
		} else {
			resp.Token = token
		}
	}

	slog.Info("user logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.Error("deleting session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
