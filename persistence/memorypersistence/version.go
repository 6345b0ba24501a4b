package memorypersistence

import (
	"context"

	"github.com/dogmatiq/procstore/persistence"
)

// LoadVersionInfo loads the ledger entry for a process ID.
func (t *transaction) LoadVersionInfo(
	ctx context.Context,
	tenantID, processID string,
) (persistence.VersionInfo, bool, error) {
	if err := t.begin(ctx); err != nil {
		return persistence.VersionInfo{}, false, err
	}

	info, ok := t.tables.versions[processKey{tenantID, processID}]
	return info.Clone(), ok, nil
}

// SaveVersionInfo creates or replaces a ledger entry.
func (t *transaction) SaveVersionInfo(
	ctx context.Context,
	info persistence.VersionInfo,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	t.tables.versions[processKey{info.TenantID, info.ProcessID}] = info.Clone()
	return nil
}
