package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/govmetrics/govdash/pkg/query"
)

// ErrNoValidColumns is returned when a write payload contains no column
// present in the target relation's live schema.
var ErrNoValidColumns = errors.New("payload contains no valid columns")

// Store performs fixed-shape reads and writes against the governance
// relations. Write payloads are generic column maps filtered against the
// live schema, the same allow-list mechanism the query compiler uses on
// the read path.
type Store struct {
	read  *sql.DB
	write *sql.DB
}

// NewStore creates a record store over the read and write handles.
func NewStore(read, write *sql.DB) *Store {
	return &Store{read: read, write: write}
}

// quoteIdent double-quotes a relation name. Relation names come from the
// Resource table, never from the client.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

// writeColumns filters a payload to the relation's live schema, dropping
// unknown keys and the primary key, and returns names and values in a
// deterministic order.
func (s *Store) writeColumns(ctx context.Context, res Resource, fields map[string]any) ([]string, []any, error) {
	columns, err := query.Columns(ctx, s.write, res.Table)
	if err != nil {
		return nil, nil, err
	}
	allowed := query.AllowList(columns)

	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == "id" {
			continue
		}
		if _, ok := allowed[name]; !ok {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil, ErrNoValidColumns
	}
	slices.Sort(names)

	values := make([]any, len(names))
	for i, name := range names {
		values[i] = fields[name]
	}
	return names, values, nil
}

// Insert creates a row from the payload and returns its rowid.
func (s *Store) Insert(ctx context.Context, res Resource, fields map[string]any) (int64, error) {
	names, values, err := s.writeColumns(ctx, res, fields)
	if err != nil {
		return 0, err
	}

	stmt, args, err := sq.Insert(quoteIdent(res.Table)).
		Columns(names...).
		Values(values...).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building insert: %w", err)
	}

	result, err := s.write.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting %s row: %w", res.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

// Update applies the payload to the row with the given id. It reports
// whether a row was actually updated.
func (s *Store) Update(ctx context.Context, res Resource, id int64, fields map[string]any) (bool, error) {
	names, values, err := s.writeColumns(ctx, res, fields)
	if err != nil {
		return false, err
	}

	builder := sq.Update(quoteIdent(res.Table))
	for i, name := range names {
		builder = builder.Set(name, values[i])
	}

	stmt, args, err := builder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("building update: %w", err)
	}

	result, err := s.write.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("updating %s row %d: %w", res.Name, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the row with the given id, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, res Resource, id int64) (bool, error) {
	stmt, args, err := sq.Delete(quoteIdent(res.Table)).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("building delete: %w", err)
	}

	result, err := s.write.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("deleting %s row %d: %w", res.Name, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return affected > 0, nil
}

// GetByID returns a single row as a generic map, or nil if absent.
func (s *Store) GetByID(ctx context.Context, res Resource, id int64) (map[string]any, error) {
	stmt, args, err := sq.Select("*").From(quoteIdent(res.Table)).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := s.read.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting %s row %d: %w", res.Name, id, err)
	}
	defer func() { _ = rows.Close() }()

	_, result, err := query.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

// ListLegacy runs the fixed fallback query used when a request carries no
// advanced query parameters.
func (s *Store) ListLegacy(ctx context.Context, res Resource) ([]map[string]any, error) {
	stmt, args, err := sq.Select("*").
		From(quoteIdent(res.Table)).
		OrderBy(res.DefaultOrder).
		Limit(legacyLimit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building legacy list: %w", err)
	}

	rows, err := s.read.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", res.Name, err)
	}
	defer func() { _ = rows.Close() }()

	_, result, err := query.ScanRows(rows)
	if err != nil {
		return nil, err
	}
	return result, nil
}
