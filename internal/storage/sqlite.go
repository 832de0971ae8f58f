// Package storage persists the planner state in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "band-availability.db"

// connection parameters understood by go-sqlite3
var pragmas = []string{
	"_foreign_keys=on",
	"_journal_mode=WAL",
	"_busy_timeout=5000",
	"_synchronous=NORMAL",
}

// DB is the application's SQLite handle.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens the SQLite file at path, creating its directory if needed.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", path+"?"+strings.Join(pragmas, "&"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to database %s: %w", path, err)
	}

	// A single writer is all SQLite allows; readers share the rest.
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)

	return &DB{DB: sqlDB, path: path}, nil
}

// OpenInDir opens (creating if needed) the default database file in dir.
func OpenInDir(dir string) (*DB, error) {
	return NewDB(filepath.Join(dir, DefaultFileName))
}

// Path returns the filesystem path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Transaction runs fn in a transaction, rolling back if fn fails.
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
