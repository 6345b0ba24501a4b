package sqlpersistence

import (
	"context"
	"database/sql"
)

// DigestDriver is the subset of the Driver interface that is concerned with
// the digests of the latest version of each process.
type DigestDriver interface {
	// SelectDigest selects the digest for a process.
	//
	// It returns false if there is no digest.
	SelectDigest(
		ctx context.Context,
		tx *sql.Tx,
		store, tenantID, processID string,
	) ([]byte, bool, error)

	// UpsertDigest creates or replaces the digest for a process.
	UpsertDigest(
		ctx context.Context,
		tx *sql.Tx,
		store, tenantID, processID string,
		checksum []byte,
	) error

	// DeleteDigest deletes the digest for a process, if present.
	DeleteDigest(
		ctx context.Context,
		tx *sql.Tx,
		store, tenantID, processID string,
	) error
}

// LoadDigest loads the digest for a process ID.
func (t *transaction) LoadDigest(
	ctx context.Context,
	tenantID, processID string,
) ([]byte, bool, error) {
	if err := t.begin(ctx); err != nil {
		return nil, false, err
	}

	return t.ds.driver.SelectDigest(ctx, t.actual, t.ds.name, tenantID, processID)
}

// SaveDigest creates or replaces the digest for a process ID.
func (t *transaction) SaveDigest(
	ctx context.Context,
	tenantID, processID string,
	checksum []byte,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	return t.ds.driver.UpsertDigest(ctx, t.actual, t.ds.name, tenantID, processID, checksum)
}

// RemoveDigest removes the digest for a process ID, if present.
func (t *transaction) RemoveDigest(
	ctx context.Context,
	tenantID, processID string,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	return t.ds.driver.DeleteDigest(ctx, t.actual, t.ds.name, tenantID, processID)
}
