package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dogmatiq/procstore/persistence"
)

// convertContextErrors converts PostgreSQL "query_canceled" errors into a
// context.Canceled or DeadlineExceeeded error.
//
// PostgreSQL drivers may prefer returning their own error if the context is
// canceled after a query is already started.
func convertContextErrors(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		if strings.Contains(err.Error(), "canceling statement due to user request") {
			return ctx.Err()
		}
	}

	return err
}

// errorConverter is an implementation of sqlpersistence.Driver that decorates
// the PostgreSQL driver in order to convert native "query_canceled" errors into
// regular context.Canceled / DeadlineExceeded errors.
//
// The error conversion is implemented this way so that conversions don't get
// missed when new methods are added to the sqlpersistence.Driver interface.
type errorConverter struct {
	d driver
}

func (d errorConverter) IsCompatibleWith(ctx context.Context, db *sql.DB) error {
	err := d.d.IsCompatibleWith(ctx, db)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) Begin(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	tx, err := d.d.Begin(ctx, db)
	return tx, convertContextErrors(ctx, err)
}

func (d errorConverter) CreateSchema(ctx context.Context, db *sql.DB) error {
	err := d.d.CreateSchema(ctx, db)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) DropSchema(ctx context.Context, db *sql.DB) error {
	err := d.d.DropSchema(ctx, db)
	return convertContextErrors(ctx, err)
}

//
// lock
//

func (d errorConverter) AcquireLock(
	ctx context.Context,
	db *sql.DB,
	store string,
	ttl time.Duration,
) (int64, bool, error) {
	id, ok, err := d.d.AcquireLock(ctx, db, store, ttl)
	return id, ok, convertContextErrors(ctx, err)
}

func (d errorConverter) RenewLock(
	ctx context.Context,
	db *sql.DB,
	id int64,
	ttl time.Duration,
) (bool, error) {
	ok, err := d.d.RenewLock(ctx, db, id, ttl)
	return ok, convertContextErrors(ctx, err)
}

func (d errorConverter) ReleaseLock(
	ctx context.Context,
	db *sql.DB,
	id int64,
) error {
	err := d.d.ReleaseLock(ctx, db, id)
	return convertContextErrors(ctx, err)
}

//
// process definition
//

func (d errorConverter) UpsertProcessDefinition(
	ctx context.Context,
	tx *sql.Tx,
	store string,
	def persistence.ProcessDefinition,
) error {
	err := d.d.UpsertProcessDefinition(ctx, tx, store, def)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) SelectProcessDefinitionByKey(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID string,
	key uint64,
) (persistence.ProcessDefinition, bool, error) {
	def, ok, err := d.d.SelectProcessDefinitionByKey(ctx, tx, store, tenantID, key)
	return def, ok, convertContextErrors(ctx, err)
}

func (d errorConverter) SelectProcessDefinitionByVersion(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
	version uint64,
) (persistence.ProcessDefinition, bool, error) {
	def, ok, err := d.d.SelectProcessDefinitionByVersion(ctx, tx, store, tenantID, processID, version)
	return def, ok, convertContextErrors(ctx, err)
}

func (d errorConverter) DeleteProcessDefinition(
	ctx context.Context,
	tx *sql.Tx,
	store string,
	def persistence.ProcessDefinition,
) (bool, error) {
	ok, err := d.d.DeleteProcessDefinition(ctx, tx, store, def)
	return ok, convertContextErrors(ctx, err)
}

func (d errorConverter) UpdateProcessDefinitionState(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID string,
	key uint64,
	state persistence.LifecycleState,
) (bool, error) {
	ok, err := d.d.UpdateProcessDefinitionState(ctx, tx, store, tenantID, key, state)
	return ok, convertContextErrors(ctx, err)
}

func (d errorConverter) SelectProcessDefinitions(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID string,
) (*sql.Rows, error) {
	rows, err := d.d.SelectProcessDefinitions(ctx, tx, store, tenantID)
	return rows, convertContextErrors(ctx, err)
}

func (d errorConverter) ScanProcessDefinition(
	rows *sql.Rows,
) (persistence.ProcessDefinition, error) {
	return d.d.ScanProcessDefinition(rows)
}

//
// version
//

func (d errorConverter) SelectVersionInfo(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
) (persistence.VersionInfo, bool, error) {
	info, ok, err := d.d.SelectVersionInfo(ctx, tx, store, tenantID, processID)
	return info, ok, convertContextErrors(ctx, err)
}

func (d errorConverter) UpsertVersionInfo(
	ctx context.Context,
	tx *sql.Tx,
	store string,
	info persistence.VersionInfo,
) error {
	err := d.d.UpsertVersionInfo(ctx, tx, store, info)
	return convertContextErrors(ctx, err)
}

//
// digest
//

func (d errorConverter) SelectDigest(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
) ([]byte, bool, error) {
	checksum, ok, err := d.d.SelectDigest(ctx, tx, store, tenantID, processID)
	return checksum, ok, convertContextErrors(ctx, err)
}

func (d errorConverter) UpsertDigest(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
	checksum []byte,
) error {
	err := d.d.UpsertDigest(ctx, tx, store, tenantID, processID, checksum)
	return convertContextErrors(ctx, err)
}

func (d errorConverter) DeleteDigest(
	ctx context.Context,
	tx *sql.Tx,
	store, tenantID, processID string,
) error {
	err := d.d.DeleteDigest(ctx, tx, store, tenantID, processID)
	return convertContextErrors(ctx, err)
}
