package query

import (
	"context"
	"database/sql"
	"fmt"
)

// MaxLimit is the hard ceiling on result-set size. Requests above it are
// clamped, and requests without a limit get it as the default. This is a
// resource-protection invariant, not a pagination default.
const MaxLimit = 10000

// Result carries the rows of an executed query together with the SQL
// text and bind parameters that produced them, for observability.
type Result struct {
	Rows    []map[string]any `json:"rows"`
	Columns []string         `json:"columns"`
	SQL     string           `json:"sql"`
	Params  []any            `json:"params"`
}

// Builder assembles and executes advanced queries against a read handle.
type Builder struct {
	db *sql.DB
}

// NewBuilder creates a query builder over the given read connection.
func NewBuilder(db *sql.DB) *Builder {
	return &Builder{db: db}
}

// Assemble builds the full SQL statement and bind arguments for a table
// and validated options. Filters, sorts, and grouping that reference
// columns outside the allow-list have already been dropped by the
// compilers it calls.
func Assemble(table string, allowed map[string]struct{}, opts Options) (string, []any) {
	clause, args := CompileFilters(opts.Filters, allowed)
	order := CompileSorts(opts.Sorts, allowed)
	groupBy := ValidateGroupBy(opts.GroupBy, allowed)

	stmt := fmt.Sprintf(`SELECT * FROM %q`, table)
	if clause != "" {
		stmt += " WHERE " + clause
	}
	if groupBy != "" {
		stmt += " GROUP BY " + groupBy
	}
	if order != "" {
		stmt += " ORDER BY " + order
	}

	limit := opts.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	stmt += fmt.Sprintf(" LIMIT %d", limit)

	if opts.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	return stmt, args
}

// Build fetches the live allow-list for the table, assembles the query,
// executes it, and returns the rows alongside the SQL and parameters.
// Execution errors propagate to the caller; no partial results are
// returned.
func (b *Builder) Build(ctx context.Context, table string, opts Options) (*Result, error) {
	columns, err := Columns(ctx, b.db, table)
	if err != nil {
		return nil, fmt.Errorf("fetching columns for %q: %w", table, err)
	}

	stmt, args := Assemble(table, AllowList(columns), opts)

	rows, err := b.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	resultColumns, resultRows, err := ScanRows(rows)
	if err != nil {
		return nil, err
	}

	return &Result{
		Rows:    resultRows,
		Columns: resultColumns,
		SQL:     stmt,
		Params:  args,
	}, nil
}

// ScanRows materializes a result set into ordered column names and
// generic row maps. BLOB-scanned text is normalized to string so rows
// marshal as JSON text rather than base64.
func ScanRows(rows *sql.Rows) ([]string, []map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("reading result columns: %w", err)
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating rows: %w", err)
	}

	return columns, result, nil
}
