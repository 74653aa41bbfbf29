package records

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	sq "github.com/Masterminds/squirrel"
	"github.com/spf13/cast"

	"github.com/govmetrics/govdash/pkg/query"
)

// ErrNoImportableColumns is returned when a CSV header shares no columns
// with the target relation.
var ErrNoImportableColumns = errors.New("csv header contains no importable columns")

// ImportCSV bulk-loads CSV rows into the resource's relation. The first
// record is the header; header fields not present in the live schema are
// dropped, matching the query compiler's fail-open column policy. All
// inserts run in a single transaction: either every row lands or none do.
func (s *Store) ImportCSV(ctx context.Context, res Resource, r io.Reader) (int, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("reading csv header: %w", err)
	}

	columns, err := query.Columns(ctx, s.write, res.Table)
	if err != nil {
		return 0, err
	}
	allowed := query.AllowList(columns)

	// keep maps insert-column position to CSV field index.
	var names []string
	var keep []int
	for i, field := range header {
		if field == "id" {
			continue
		}
		if _, ok := allowed[field]; !ok {
			continue
		}
		names = append(names, field)
		keep = append(keep, i)
	}
	if len(names) == 0 {
		return 0, ErrNoImportableColumns
	}

	placeholderRow := make([]any, len(names))
	for i := range placeholderRow {
		placeholderRow[i] = nil
	}
	stmt, _, err := sq.Insert(quoteIdent(res.Table)).
		Columns(names...).
		Values(placeholderRow...).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building import insert: %w", err)
	}

	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("preparing import insert: %w", err)
	}
	defer func() { _ = prepared.Close() }()

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading csv row %d: %w", count+2, err)
		}

		args := make([]any, len(names))
		for i, fieldIdx := range keep {
			if fieldIdx >= len(record) {
				args[i] = nil
				continue
			}
			args[i] = coerceField(record[fieldIdx])
		}

		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("inserting csv row %d: %w", count+2, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return count, nil
}

// coerceField turns a CSV string into the tightest scalar it parses as.
// Empty fields become NULL; SQLite's type affinity handles the rest.
func coerceField(field string) any {
	if field == "" {
		return nil
	}
	if n, err := cast.ToInt64E(field); err == nil {
		return n
	}
	if f, err := cast.ToFloat64E(field); err == nil {
		return f
	}
	if b, err := cast.ToBoolE(field); err == nil {
		return b
	}
	return field
}
