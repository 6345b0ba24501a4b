package postgres

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procstore/internal/x/sqlx"
	"github.com/dogmatiq/procstore/persistence"
)

// UpsertProcessDefinition creates or replaces a process definition.
func (driver) UpsertProcessDefinition(
	ctx context.Context,
	tx *sql.Tx,
	store string,
	def persistence.ProcessDefinition,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		tx,
		`INSERT INTO procstore.process_definition (
			store,
			tenant_id,
			definition_key,
			process_id,
			version,
			resource_name,
			checksum,
			resource,
			deployment_key,
			state
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) ON CONFLICT (store, tenant_id, definition_key) DO UPDATE SET
			process_id = excluded.process_id,
			version = excluded.version,
			resource_name = excluded.resource_name,
			checksum = excluded.checksum,
			resource = excluded.resource,
			deployment_key = excluded.deployment_key,
			state = excluded.state`,
		store,
		def.TenantID,
		def.Key,
		def.ProcessID,
		def.Version,
		def.ResourceName,
		def.Checksum,
		def.Resource,
		def.DeploymentKey,
		def.State,
	)

	return nil
}

// SelectProcessDefinitionByKey selects the process definition with the given
// key.
func (driver) SelectProcessDefinitionByKey(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID string,
	key uint64,
) (persistence.ProcessDefinition, bool, error) {
	return selectProcessDefinition(
		ctx,
		tx,
		`SELECT
			tenant_id,
			definition_key,
			process_id,
			version,
			resource_name,
			checksum,
			resource,
			deployment_key,
			state
		FROM procstore.process_definition
		WHERE store = $1
		AND tenant_id = $2
		AND definition_key = $3`,
		store,
		tenantID,
		key,
	)
}

// SelectProcessDefinitionByVersion selects a specific version of a process.
func (driver) SelectProcessDefinitionByVersion(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
	version uint64,
) (persistence.ProcessDefinition, bool, error) {
	return selectProcessDefinition(
		ctx,
		tx,
		`SELECT
			tenant_id,
			definition_key,
			process_id,
			version,
			resource_name,
			checksum,
			resource,
			deployment_key,
			state
		FROM procstore.process_definition
		WHERE store = $1
		AND tenant_id = $2
		AND process_id = $3
		AND version = $4`,
		store,
		tenantID,
		processID,
		version,
	)
}

// DeleteProcessDefinition deletes a process definition.
//
// It returns false if there is no row with the definition's key, process ID
// and version.
func (driver) DeleteProcessDefinition(
	ctx context.Context,
	tx *sql.Tx,
	store string,
	def persistence.ProcessDefinition,
) (_ bool, err error) {
	defer sqlx.Recover(&err)

	return sqlx.TryExecRow(
		ctx,
		tx,
		`DELETE FROM procstore.process_definition
		WHERE store = $1
		AND tenant_id = $2
		AND definition_key = $3
		AND process_id = $4
		AND version = $5`,
		store,
		def.TenantID,
		def.Key,
		def.ProcessID,
		def.Version,
	), nil
}

// UpdateProcessDefinitionState sets the state of a process definition.
func (driver) UpdateProcessDefinitionState(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID string,
	key uint64,
	state persistence.LifecycleState,
) (_ bool, err error) {
	defer sqlx.Recover(&err)

	return sqlx.TryExecRow(
		ctx,
		tx,
		`UPDATE procstore.process_definition SET
			state = $1
		WHERE store = $2
		AND tenant_id = $3
		AND definition_key = $4`,
		state,
		store,
		tenantID,
		key,
	), nil
}

// SelectProcessDefinitions selects all of a tenant's process definitions in
// order of ascending key.
func (driver) SelectProcessDefinitions(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID string,
) (*sql.Rows, error) {
	return tx.QueryContext(
		ctx,
		`SELECT
			tenant_id,
			definition_key,
			process_id,
			version,
			resource_name,
			checksum,
			resource,
			deployment_key,
			state
		FROM procstore.process_definition
		WHERE store = $1
		AND tenant_id = $2
		ORDER BY definition_key`,
		store,
		tenantID,
	)
}

// ScanProcessDefinition scans the next process definition from a row-set
// returned by SelectProcessDefinitions().
func (driver) ScanProcessDefinition(
	rows *sql.Rows,
) (persistence.ProcessDefinition, error) {
	var def persistence.ProcessDefinition
	err := rows.Scan(processDefinitionColumns(&def)...)
	return def, err
}

// selectProcessDefinition executes a query that returns at most one process
// definition.
func selectProcessDefinition(
	ctx context.Context,
	tx *sql.Tx,
	query string,
	args ...interface{},
) (_ persistence.ProcessDefinition, _ bool, err error) {
	defer sqlx.Recover(&err)

	var def persistence.ProcessDefinition
	ok := sqlx.TryQueryRow(ctx, tx, query, args, processDefinitionColumns(&def)...)

	return def, ok, nil
}

// processDefinitionColumns returns the scan destinations for the columns
// selected by each process definition query.
func processDefinitionColumns(def *persistence.ProcessDefinition) []interface{} {
	return []interface{}{
		&def.TenantID,
		&def.Key,
		&def.ProcessID,
		&def.Version,
		&def.ResourceName,
		&def.Checksum,
		&def.Resource,
		&def.DeploymentKey,
		&def.State,
	}
}

// createProcessDefinitionSchema creates the schema elements for process
// definitions.
func createProcessDefinitionSchema(ctx context.Context, db sqlx.DB) {
	sqlx.Exec(
		ctx,
		db,
		`CREATE TABLE IF NOT EXISTS procstore.process_definition (
			store          TEXT NOT NULL,
			tenant_id      TEXT NOT NULL,
			definition_key BIGINT NOT NULL,
			process_id     TEXT NOT NULL,
			version        BIGINT NOT NULL,
			resource_name  TEXT NOT NULL,
			checksum       BYTEA,
			resource       BYTEA,
			deployment_key BIGINT NOT NULL,
			state          INTEGER NOT NULL,

			PRIMARY KEY (store, tenant_id, definition_key),
			UNIQUE (store, tenant_id, process_id, version)
		)`,
	)
}
