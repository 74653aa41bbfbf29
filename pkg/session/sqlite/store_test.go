package sqlite

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govmetrics/govdash/pkg/session"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, Config{TTL: time.Hour}), mock
}

func TestStore_Create(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()
	sess := &session.Session{
		ID:           "s1",
		UserID:       "u1",
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(time.Hour),
	}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("s1", "u1", now, now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Create(context.Background(), sess))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "user_id", "created_at", "last_active_at", "expires_at"}).
			AddRow("s1", "u1", now, now, now.Add(time.Hour))
		mock.ExpectQuery("SELECT id, user_id, created_at, last_active_at, expires_at").
			WithArgs("s1", sqlmock.AnyArg()).
			WillReturnRows(rows)

		got, err := store.Get(context.Background(), "s1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "u1", got.UserID)
	})

	t.Run("not found returns nil nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, created_at, last_active_at, expires_at").
			WithArgs("missing", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at", "last_active_at", "expires_at"}))

		got, err := store.Get(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Touch(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("UPDATE sessions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Touch(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("DELETE FROM sessions WHERE id").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Cleanup(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, store.Cleanup(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
