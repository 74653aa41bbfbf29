package query

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	t.Run("returns columns in schema order", func(t *testing.T) {
		mock.ExpectQuery(columnsQuery).
			WithArgs("Referenda").
			WillReturnRows(sqlmock.NewRows([]string{"name"}).
				AddRow("id").AddRow("status").AddRow("category_id"))

		cols, err := Columns(context.Background(), db, "Referenda")
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "status", "category_id"}, cols)
	})

	t.Run("missing relation yields empty list", func(t *testing.T) {
		mock.ExpectQuery(columnsQuery).
			WithArgs("NoSuchTable").
			WillReturnRows(sqlmock.NewRows([]string{"name"}))

		cols, err := Columns(context.Background(), db, "NoSuchTable")
		require.NoError(t, err)
		assert.Empty(t, cols)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
