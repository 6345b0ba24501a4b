package sqlpersistence

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procstore/persistence"
)

// VersionDriver is the subset of the Driver interface that is concerned with
// the version ledger.
type VersionDriver interface {
	// SelectVersionInfo selects the ledger entry for a process.
	//
	// It returns false if no version of the process has ever been recorded.
	SelectVersionInfo(
		ctx context.Context,
		tx *sql.Tx,
		store, tenantID, processID string,
	) (persistence.VersionInfo, bool, error)

	// UpsertVersionInfo creates or replaces the ledger entry for a process,
	// including its known versions.
	UpsertVersionInfo(
		ctx context.Context,
		tx *sql.Tx,
		store string,
		info persistence.VersionInfo,
	) error
}

// LoadVersionInfo loads the ledger entry for a process ID.
func (t *transaction) LoadVersionInfo(
	ctx context.Context,
	tenantID, processID string,
) (persistence.VersionInfo, bool, error) {
	if err := t.begin(ctx); err != nil {
		return persistence.VersionInfo{}, false, err
	}

	return t.ds.driver.SelectVersionInfo(ctx, t.actual, t.ds.name, tenantID, processID)
}

// SaveVersionInfo creates or replaces the ledger entry for a process ID.
func (t *transaction) SaveVersionInfo(
	ctx context.Context,
	info persistence.VersionInfo,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	return t.ds.driver.UpsertVersionInfo(ctx, t.actual, t.ds.name, info)
}
