package sqlpersistence

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procstore/persistence"
)

// ProcessDefinitionDriver is the subset of the Driver interface that is
// concerned with process definitions.
type ProcessDefinitionDriver interface {
	// UpsertProcessDefinition creates or replaces a process definition.
	UpsertProcessDefinition(
		ctx context.Context,
		tx *sql.Tx,
		store string,
		def persistence.ProcessDefinition,
	) error

	// SelectProcessDefinitionByKey selects the process definition with the
	// given key.
	//
	// It returns false if the definition does not exist.
	SelectProcessDefinitionByKey(
		ctx context.Context,
		tx *sql.Tx,
		store, tenantID string,
		key uint64,
	) (persistence.ProcessDefinition, bool, error)

	// SelectProcessDefinitionByVersion selects a specific version of a
	// process.
	//
	// It returns false if the version does not exist.
	SelectProcessDefinitionByVersion(
		ctx context.Context,
		tx *sql.Tx,
		store, tenantID, processID string,
		version uint64,
	) (persistence.ProcessDefinition, bool, error)

	// DeleteProcessDefinition deletes a process definition.
	//
	// It returns false if there is no row with the definition's key, process
	// ID and version.
	DeleteProcessDefinition(
		ctx context.Context,
		tx *sql.Tx,
		store string,
		def persistence.ProcessDefinition,
	) (bool, error)

	// UpdateProcessDefinitionState sets the state of a process definition.
	//
	// It returns false if the definition does not exist.
	UpdateProcessDefinitionState(
		ctx context.Context,
		tx *sql.Tx,
		store, tenantID string,
		key uint64,
		state persistence.LifecycleState,
	) (bool, error)

	// SelectProcessDefinitions selects all of a tenant's process definitions
	// in order of ascending key.
	SelectProcessDefinitions(
		ctx context.Context,
		tx *sql.Tx,
		store, tenantID string,
	) (*sql.Rows, error)

	// ScanProcessDefinition scans the next process definition from a row-set
	// returned by SelectProcessDefinitions().
	ScanProcessDefinition(
		rows *sql.Rows,
	) (persistence.ProcessDefinition, error)
}

// SaveProcessDefinition creates or replaces a process definition under both
// indexes.
func (t *transaction) SaveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	existing, ok, err := t.ds.driver.SelectProcessDefinitionByVersion(
		ctx,
		t.actual,
		t.ds.name,
		def.TenantID,
		def.ProcessID,
		def.Version,
	)
	if err != nil {
		return err
	}

	if ok && existing.Key != def.Key {
		return persistence.DuplicateVersionError{
			TenantID:    def.TenantID,
			ProcessID:   def.ProcessID,
			Version:     def.Version,
			Key:         def.Key,
			ExistingKey: existing.Key,
		}
	}

	return t.ds.driver.UpsertProcessDefinition(ctx, t.actual, t.ds.name, def)
}

// LoadProcessDefinitionByKey loads the process definition with the given key.
func (t *transaction) LoadProcessDefinitionByKey(
	ctx context.Context,
	tenantID string,
	key uint64,
) (persistence.ProcessDefinition, bool, error) {
	if err := t.begin(ctx); err != nil {
		return persistence.ProcessDefinition{}, false, err
	}

	return t.ds.driver.SelectProcessDefinitionByKey(ctx, t.actual, t.ds.name, tenantID, key)
}

// LoadProcessDefinitionByVersion loads a specific version of a process.
func (t *transaction) LoadProcessDefinitionByVersion(
	ctx context.Context,
	tenantID, processID string,
	version uint64,
) (persistence.ProcessDefinition, bool, error) {
	if err := t.begin(ctx); err != nil {
		return persistence.ProcessDefinition{}, false, err
	}

	return t.ds.driver.SelectProcessDefinitionByVersion(ctx, t.actual, t.ds.name, tenantID, processID, version)
}

// RemoveProcessDefinition removes a process definition from both indexes.
func (t *transaction) RemoveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	ok, err := t.ds.driver.DeleteProcessDefinition(ctx, t.actual, t.ds.name, def)
	if ok || err != nil {
		return err
	}

	// Both indexes are served by the same row, so find out which part of the
	// definition's identity did not match.
	_, ok, err = t.ds.driver.SelectProcessDefinitionByKey(ctx, t.actual, t.ds.name, def.TenantID, def.Key)
	if err != nil {
		return err
	}

	if !ok {
		return persistence.NotFoundError{
			Table:    persistence.RecordsByKeyTable,
			TenantID: def.TenantID,
			Key:      persistence.KeyString(def.Key),
		}
	}

	return persistence.NotFoundError{
		Table:    persistence.RecordsByIDVersionTable,
		TenantID: def.TenantID,
		Key:      persistence.VersionKeyString(def.ProcessID, def.Version),
	}
}

// UpdateProcessDefinitionState sets the lifecycle state of an existing process
// definition.
func (t *transaction) UpdateProcessDefinitionState(
	ctx context.Context,
	tenantID string,
	key uint64,
	state persistence.LifecycleState,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	ok, err := t.ds.driver.UpdateProcessDefinitionState(ctx, t.actual, t.ds.name, tenantID, key, state)
	if ok || err != nil {
		return err
	}

	return persistence.NotFoundError{
		Table:    persistence.RecordsByKeyTable,
		TenantID: tenantID,
		Key:      persistence.KeyString(key),
	}
}

// RangeProcessDefinitions calls fn for each of the tenant's process
// definitions, in order of ascending key, until fn returns false.
func (t *transaction) RangeProcessDefinitions(
	ctx context.Context,
	tenantID string,
	fn func(persistence.ProcessDefinition) bool,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	rows, err := t.ds.driver.SelectProcessDefinitions(ctx, t.actual, t.ds.name, tenantID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		def, err := t.ds.driver.ScanProcessDefinition(rows)
		if err != nil {
			return err
		}

		if !fn(def) {
			return nil
		}
	}

	return rows.Err()
}
