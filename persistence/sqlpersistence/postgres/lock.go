package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dogmatiq/procstore/internal/x/sqlx"
)

// AcquireLock acquires an exclusive lock on a data-store's data.
//
// It returns the lock ID, which can be used in subsequent calls to RenewLock()
// and ReleaseLock().
//
// It returns false if the lock can not be acquired.
func (driver) AcquireLock(
	ctx context.Context,
	db *sql.DB,
	store string,
	ttl time.Duration,
) (_ int64, _ bool, err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		db,
		`DELETE FROM procstore.store_lock
		WHERE expires_at <= CURRENT_TIMESTAMP`,
	)

	var id int64
	ok := sqlx.TryQueryRow(
		ctx,
		db,
		`INSERT INTO procstore.store_lock (
			store,
			expires_at
		) VALUES (
			$1, CURRENT_TIMESTAMP + $2::INTERVAL
		) ON CONFLICT (store) DO NOTHING
		RETURNING id`,
		[]interface{}{
			store,
			interval(ttl),
		},
		&id,
	)

	return id, ok, nil
}

// RenewLock updates the expiry timestamp on a lock that has already been
// acquired.
//
// It returns false if the lock has not been acquired.
func (driver) RenewLock(
	ctx context.Context,
	db *sql.DB,
	id int64,
	ttl time.Duration,
) (_ bool, err error) {
	defer sqlx.Recover(&err)

	return sqlx.TryExecRow(
		ctx,
		db,
		`UPDATE procstore.store_lock SET
			expires_at = CURRENT_TIMESTAMP + $1::INTERVAL
		WHERE id = $2
		AND expires_at > CURRENT_TIMESTAMP`,
		interval(ttl),
		id,
	), nil
}

// ReleaseLock releases a lock that was previously acquired.
func (driver) ReleaseLock(
	ctx context.Context,
	db *sql.DB,
	id int64,
) error {
	_, err := db.ExecContext(
		ctx,
		`DELETE FROM procstore.store_lock
		WHERE id = $1`,
		id,
	)
	return err
}

// interval returns the PostgreSQL interval representation of d.
func interval(d time.Duration) string {
	return fmt.Sprintf("%d MICROSECONDS", d.Microseconds())
}

// createLockSchema creates schema elements for locks.
func createLockSchema(ctx context.Context, db sqlx.DB) {
	sqlx.Exec(
		ctx,
		db,
		`CREATE TABLE IF NOT EXISTS procstore.store_lock (
			id         BIGSERIAL PRIMARY KEY,
			store      TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL
		)`,
	)
}
