// Package database opens and owns the process-wide SQLite handles.
// Handles are opened once at startup and passed explicitly to the stores
// that need them; there are no package-level singletons.
package database

import (
	"database/sql"
	"fmt"
	"net/url"

	// SQLite driver registration.
	_ "github.com/mattn/go-sqlite3"
)

// DB holds the long-lived read and write handles. SQLite in WAL mode
// serializes writers itself, so the write handle is capped at a single
// open connection while readers may fan out.
type DB struct {
	Read  *sql.DB
	Write *sql.DB
}

// maxReadConns bounds the read-side connection pool.
const maxReadConns = 8

// Open opens both handles against the database file at path, enabling
// write-ahead logging and foreign keys. The file is created on first use.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", url.PathEscape(path))

	write, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening write handle: %w", err)
	}
	write.SetMaxOpenConns(1)
	if err := write.Ping(); err != nil {
		_ = write.Close()
		return nil, fmt.Errorf("pinging write handle: %w", err)
	}

	read, err := sql.Open("sqlite3", dsn)
	if err != nil {
		_ = write.Close()
		return nil, fmt.Errorf("opening read handle: %w", err)
	}
	read.SetMaxOpenConns(maxReadConns)
	if err := read.Ping(); err != nil {
		_ = write.Close()
		_ = read.Close()
		return nil, fmt.Errorf("pinging read handle: %w", err)
	}

	return &DB{Read: read, Write: write}, nil
}

// Close closes both handles, reporting the first error encountered.
func (d *DB) Close() error {
	readErr := d.Read.Close()
	writeErr := d.Write.Close()
	if readErr != nil {
		return fmt.Errorf("closing read handle: %w", readErr)
	}
	if writeErr != nil {
		return fmt.Errorf("closing write handle: %w", writeErr)
	}
	return nil
}
