package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govmetrics/govdash/pkg/session"
)

func seedSession(t *testing.T, store session.Store, id, userID string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.Create(context.Background(), &session.Session{
		ID:           id,
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(time.Hour),
	}))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Require_Cookie(t *testing.T) {
	users, mock := newMockStore(t)
	sessions := session.NewMemoryStore(time.Hour)
	defer func() { _ = sessions.Close() }()
	seedSession(t, sessions, "sess-1", "u1")

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("u1").
		WillReturnRows(userRows(t, "alice", "pw", RoleAdmin))

	mw := &Middleware{Users: users, Sessions: sessions}

	var got *User
	handler := mw.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
}

func TestMiddleware_Require_BearerToken(t *testing.T) {
	users, mock := newMockStore(t)
	sessions := session.NewMemoryStore(time.Hour)
	defer func() { _ = sessions.Close() }()

	tokens := NewTokenIssuer([]byte("test-secret"), time.Hour)
	token, err := tokens.Issue(&User{ID: "u1", Role: RoleViewer})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("u1").
		WillReturnRows(userRows(t, "alice", "pw", RoleViewer))

	mw := &Middleware{Users: users, Sessions: sessions, Tokens: tokens}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_Require_Anonymous(t *testing.T) {
	users, _ := newMockStore(t)
	sessions := session.NewMemoryStore(time.Hour)
	defer func() { _ = sessions.Close() }()

	mw := &Middleware{Users: users, Sessions: sessions}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	mw.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestMiddleware_RequireAdmin_ViewerForbidden(t *testing.T) {
	users, mock := newMockStore(t)
	sessions := session.NewMemoryStore(time.Hour)
	defer func() { _ = sessions.Close() }()
	seedSession(t, sessions, "sess-1", "u1")

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("u1").
		WillReturnRows(userRows(t, "bob", "pw", RoleViewer))

	mw := &Middleware{Users: users, Sessions: sessions}

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/referenda/1", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	mw.RequireAdmin(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_InvalidBearerIsAnonymous(t *testing.T) {
	users, _ := newMockStore(t)
	sessions := session.NewMemoryStore(time.Hour)
	defer func() { _ = sessions.Close() }()

	mw := &Middleware{
		Users:    users,
		Sessions: sessions,
		Tokens:   NewTokenIssuer([]byte("test-secret"), time.Hour),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	mw.Require(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
