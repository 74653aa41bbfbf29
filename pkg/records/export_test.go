package records

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/govmetrics/govdash/pkg/query"
)

func TestWriteXLSX(t *testing.T) {
	result := &query.Result{
		Columns: []string{"id", "title"},
		Rows: []map[string]any{
			{"id": int64(1), "title": "Alpha"},
			{"id": int64(2), "title": "Beta"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Referenda", result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Referenda")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "title"}, rows[0])
	assert.Equal(t, []string{"1", "Alpha"}, rows[1])
	assert.Equal(t, []string{"2", "Beta"}, rows[2])
}

func TestWriteXLSXEmptyResult(t *testing.T) {
	result := &query.Result{Columns: []string{"id", "name"}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Categories", result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Categories")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"id", "name"}, rows[0])
}
