package storage

import (
	"context"
	"database/sql"
	"time"
)

// Queryable is satisfied by both *sql.DB and *sql.Tx.
type Queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BaseRepository is embedded by every repository.
type BaseRepository struct {
	db    *DB
	clock func() time.Time
}

// NewBaseRepository creates a base repository on db.
func NewBaseRepository(db *DB) BaseRepository {
	return BaseRepository{db: db, clock: time.Now}
}

// DB returns the underlying database connection.
func (r *BaseRepository) DB() *DB {
	return r.db
}

// Now is the UTC timestamp written to updated_at columns.
func (r *BaseRepository) Now() time.Time {
	return r.clock().UTC()
}

// WithinTx runs fn against a transaction, committing only if fn succeeds.
func (r *BaseRepository) WithinTx(ctx context.Context, fn func(q Queryable) error) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		return fn(tx)
	})
}
