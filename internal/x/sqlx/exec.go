package sqlx

import (
	"context"
	"database/sql"
	"fmt"
)

// Exec executes a statement on the given DB.
func Exec(
	ctx context.Context,
	db DB,
	query string,
	args ...interface{},
) sql.Result {
	res, err := db.ExecContext(ctx, query, args...)
	Must(err)
	return res
}

// TryExecRow executes a statement on the given DB.
//
// It returns true if exactly one row was affected, or false if no rows were
// affected. It panics if more than one row was affected.
func TryExecRow(
	ctx context.Context,
	db DB,
	query string,
	args ...interface{},
) bool {
	res := Exec(ctx, db, query, args...)

	n, err := res.RowsAffected()
	Must(err)

	switch n {
	case 0:
		return false
	case 1:
		return true
	default:
		Must(fmt.Errorf("%d rows affected, expected at most one", n))
		return false // unreachable
	}
}

// TryInsert executes an insert statement on the given DB and returns the last
// insert ID.
//
// It returns false if no rows were inserted, such as when the statement uses
// an ON CONFLICT DO NOTHING clause.
func TryInsert(
	ctx context.Context,
	db DB,
	query string,
	args ...interface{},
) (int64, bool) {
	res := Exec(ctx, db, query, args...)

	n, err := res.RowsAffected()
	Must(err)

	if n == 0 {
		return 0, false
	}

	id, err := res.LastInsertId()
	Must(err)

	return id, true
}
