package boltpersistence

import (
	"context"

	"github.com/dogmatiq/procstore/internal/x/bboltx"
	"github.com/dogmatiq/procstore/persistence"
)

// versionLedgerBucketKey is the key of the bucket that contains the version
// ledger.
//
// The keys are produced by processKey(). The values are ledger entries
// marshaled by marshalVersionInfo().
var versionLedgerBucketKey = []byte("version_ledger")

// LoadVersionInfo loads the ledger entry for a process ID.
func (t *transaction) LoadVersionInfo(
	ctx context.Context,
	tenantID, processID string,
) (_ persistence.VersionInfo, _ bool, err error) {
	defer bboltx.Recover(&err)

	data := t.bucket(ctx, versionLedgerBucketKey).Get(processKey(tenantID, processID))
	if data == nil {
		return persistence.VersionInfo{}, false, nil
	}

	return unmarshalVersionInfo(data), true, nil
}

// SaveVersionInfo creates or replaces a ledger entry.
func (t *transaction) SaveVersionInfo(
	ctx context.Context,
	info persistence.VersionInfo,
) (err error) {
	defer bboltx.Recover(&err)

	bboltx.Put(
		t.bucket(ctx, versionLedgerBucketKey),
		processKey(info.TenantID, info.ProcessID),
		marshalVersionInfo(info),
	)

	return nil
}
