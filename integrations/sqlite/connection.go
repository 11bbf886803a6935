// Package sqlite persists bills, line items and processed-source markers in a
// local SQLite database. It implements the store the ingestion coordinator
// and the reporter consume.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the database handle.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the database file with foreign keys enabled and
// verifies the connection.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database handle.
func (db *DB) Close() error {
	return db.conn.Close()
}
