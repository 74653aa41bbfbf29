package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govmetrics/govdash/pkg/config"
	"github.com/govmetrics/govdash/pkg/database"
	"github.com/govmetrics/govdash/pkg/session"
)

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sessions := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = sessions.Close() })

	cfg, err := config.Load("")
	require.NoError(t, err)

	return New(cfg, &database.DB{Read: db, Write: db}, sessions), mock
}

func TestHealthz(t *testing.T) {
	srv, mock := newTestServer(t)
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHealthzUnhealthy(t *testing.T) {
	srv, mock := newTestServer(t)
	mock.ExpectPing().WillReturnError(errors.New("database is locked"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecordRoutesWired(t *testing.T) {
	srv, mock := newTestServer(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "Referenda" ORDER BY referendum_index DESC LIMIT 100`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(1, "Alpha"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/referenda", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRoutesWired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesGated(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/referenda/1", nil)
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
