package sqlx

import (
	"context"
	"database/sql"
)

// Query executes a query on the given DB.
func Query(
	ctx context.Context,
	db DB,
	query string,
	args ...interface{},
) *sql.Rows {
	rows, err := db.QueryContext(ctx, query, args...)
	Must(err)
	return rows
}

// TryQueryRow executes a single-row query on the given DB and scans the result
// into dest.
//
// It returns false if the query produced no rows.
func TryQueryRow(
	ctx context.Context,
	db DB,
	query string,
	args []interface{},
	dest ...interface{},
) bool {
	err := db.QueryRowContext(ctx, query, args...).Scan(dest...)
	if err == sql.ErrNoRows {
		return false
	}

	Must(err)
	return true
}
