package records

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryAggregates(t *testing.T) {
	store, mock := newStoreMock(t)
	// Count queries iterate the resource map, so their order is not fixed.
	mock.MatchExpectationsInOrder(false)

	for _, res := range Resources() {
		mock.ExpectQuery(`SELECT COUNT(*) FROM ` + quoteIdent(res.Table)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	}
	mock.ExpectQuery(`SELECT status, COUNT(*) AS count FROM "Referenda" GROUP BY status ORDER BY count DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("Executed", 2).
			AddRow("Deciding", 1))
	mock.ExpectQuery(`SELECT asset, COALESCE(SUM(amount), 0) AS total FROM "TreasurySpends" GROUP BY asset ORDER BY total DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"asset", "total"}).
			AddRow("DOT", 1500.5))

	summary, err := store.Summary(context.Background())
	require.NoError(t, err)

	assert.Len(t, summary.Counts, len(Resources()))
	assert.Equal(t, int64(3), summary.Counts["referenda"])

	require.Len(t, summary.ReferendaByStatus, 2)
	assert.Equal(t, StatusCount{Status: "Executed", Count: 2}, summary.ReferendaByStatus[0])

	require.Len(t, summary.SpendTotalsByAsset, 1)
	assert.Equal(t, AssetTotal{Asset: "DOT", Total: 1500.5}, summary.SpendTotalsByAsset[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
