package postgres

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procstore/internal/x/sqlx"
	"github.com/dogmatiq/procstore/persistence"
)

// SelectVersionInfo selects the ledger entry for a process.
func (driver) SelectVersionInfo(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
) (_ persistence.VersionInfo, _ bool, err error) {
	defer sqlx.Recover(&err)

	info := persistence.VersionInfo{
		TenantID:  tenantID,
		ProcessID: processID,
	}

	if !sqlx.TryQueryRow(
		ctx,
		tx,
		`SELECT
			highest_version
		FROM procstore.process_version
		WHERE store = $1
		AND tenant_id = $2
		AND process_id = $3`,
		[]interface{}{store, tenantID, processID},
		&info.HighestVersion,
	) {
		return persistence.VersionInfo{}, false, nil
	}

	rows := sqlx.Query(
		ctx,
		tx,
		`SELECT
			version
		FROM procstore.process_version_known
		WHERE store = $1
		AND tenant_id = $2
		AND process_id = $3
		ORDER BY version`,
		store,
		tenantID,
		processID,
	)
	defer rows.Close()

	for rows.Next() {
		var v uint64
		sqlx.Must(rows.Scan(&v))
		info.KnownVersions = append(info.KnownVersions, v)
	}

	return info, true, rows.Err()
}

// UpsertVersionInfo creates or replaces the ledger entry for a process,
// including its known versions.
func (driver) UpsertVersionInfo(
	ctx context.Context,
	tx *sql.Tx,
	store string,
	info persistence.VersionInfo,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		tx,
		`INSERT INTO procstore.process_version (
			store,
			tenant_id,
			process_id,
			highest_version
		) VALUES (
			$1, $2, $3, $4
		) ON CONFLICT (store, tenant_id, process_id) DO UPDATE SET
			highest_version = excluded.highest_version`,
		store,
		info.TenantID,
		info.ProcessID,
		info.HighestVersion,
	)

	sqlx.Exec(
		ctx,
		tx,
		`DELETE FROM procstore.process_version_known
		WHERE store = $1
		AND tenant_id = $2
		AND process_id = $3`,
		store,
		info.TenantID,
		info.ProcessID,
	)

	for _, v := range info.KnownVersions {
		sqlx.Exec(
			ctx,
			tx,
			`INSERT INTO procstore.process_version_known (
				store,
				tenant_id,
				process_id,
				version
			) VALUES (
				$1, $2, $3, $4
			)`,
			store,
			info.TenantID,
			info.ProcessID,
			v,
		)
	}

	return nil
}

// createVersionSchema creates the schema elements for the version ledger.
func createVersionSchema(ctx context.Context, db sqlx.DB) {
	sqlx.Exec(
		ctx,
		db,
		`CREATE TABLE IF NOT EXISTS procstore.process_version (
			store           TEXT NOT NULL,
			tenant_id       TEXT NOT NULL,
			process_id      TEXT NOT NULL,
			highest_version BIGINT NOT NULL,

			PRIMARY KEY (store, tenant_id, process_id)
		)`,
	)

	sqlx.Exec(
		ctx,
		db,
		`CREATE TABLE IF NOT EXISTS procstore.process_version_known (
			store      TEXT NOT NULL,
			tenant_id  TEXT NOT NULL,
			process_id TEXT NOT NULL,
			version    BIGINT NOT NULL,

			PRIMARY KEY (store, tenant_id, process_id, version)
		)`,
	)
}
