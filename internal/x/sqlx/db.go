package sqlx

import (
	"context"
	"database/sql"
)

// DB is the subset of *sql.DB, *sql.Conn and *sql.Tx used to run statements.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var (
	_ DB = (*sql.DB)(nil)
	_ DB = (*sql.Conn)(nil)
	_ DB = (*sql.Tx)(nil)
)

// Begin starts a transaction that is used to apply schema changes.
func Begin(ctx context.Context, db *sql.DB) *sql.Tx {
	tx, err := db.BeginTx(ctx, nil)
	Must(err)
	return tx
}
