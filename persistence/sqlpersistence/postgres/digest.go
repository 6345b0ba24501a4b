package postgres

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procstore/internal/x/sqlx"
)

// SelectDigest selects the digest for a process.
func (driver) SelectDigest(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
) (checksum []byte, _ bool, err error) {
	defer sqlx.Recover(&err)

	ok := sqlx.TryQueryRow(
		ctx,
		tx,
		`SELECT
			checksum
		FROM procstore.process_digest
		WHERE store = $1
		AND tenant_id = $2
		AND process_id = $3`,
		[]interface{}{store, tenantID, processID},
		&checksum,
	)

	return checksum, ok, nil
}

// UpsertDigest creates or replaces the digest for a process.
func (driver) UpsertDigest(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
	checksum []byte,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		tx,
		`INSERT INTO procstore.process_digest (
			store,
			tenant_id,
			process_id,
			checksum
		) VALUES (
			$1, $2, $3, $4
		) ON CONFLICT (store, tenant_id, process_id) DO UPDATE SET
			checksum = excluded.checksum`,
		store,
		tenantID,
		processID,
		checksum,
	)

	return nil
}

// DeleteDigest deletes the digest for a process, if present.
func (driver) DeleteDigest(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		tx,
		`DELETE FROM procstore.process_digest
		WHERE store = $1
		AND tenant_id = $2
		AND process_id = $3`,
		store,
		tenantID,
		processID,
	)

	return nil
}

// createDigestSchema creates the schema elements for digests.
func createDigestSchema(ctx context.Context, db sqlx.DB) {
	sqlx.Exec(
		ctx,
		db,
		`CREATE TABLE IF NOT EXISTS procstore.process_digest (
			store      TEXT NOT NULL,
			tenant_id  TEXT NOT NULL,
			process_id TEXT NOT NULL,
			checksum   BYTEA,

			PRIMARY KEY (store, tenant_id, process_id)
		)`,
	)
}
