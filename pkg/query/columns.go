package query

import (
	"context"
	"database/sql"
	"fmt"
)

// columnsQuery introspects a relation through the table-valued pragma so
// the relation name itself stays a bind parameter.
const columnsQuery = `SELECT name FROM pragma_table_info(?) ORDER BY cid`

// Columns returns the live column names of the named table or view, in
// schema order. The schema is read fresh on every call so the allow-list
// tracks schema drift without a restart. A relation that does not exist
// yields an empty list, not an error; downstream compilers then treat
// every column reference as invalid.
func Columns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("introspecting %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	return columns, nil
}
