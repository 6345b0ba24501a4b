package deployment

import (
	"context"
	"slices"

	"github.com/dogmatiq/procstore/persistence"
)

// VersionManager tracks the versions of each process ID.
//
// The ledger is persisted via a persistence.VersionLedger. Entries are cached in
// memory once read, so the manager must be the only writer of the ledger, and
// its memory must be cleared with Clear() if a transaction that it wrote to is
// rolled-back.
type VersionManager struct {
	entries map[processRef]persistence.VersionInfo
}

// processRef identifies a process ID within a tenant.
type processRef struct {
	TenantID  string
	ProcessID string
}

// NewVersionManager returns a new, empty version manager.
func NewVersionManager() *VersionManager {
	return &VersionManager{
		entries: map[processRef]persistence.VersionInfo{},
	}
}

// AddVersion records that version v of a process exists.
//
// The highest version ever assigned to the process is raised to v if v is
// greater.
func (m *VersionManager) AddVersion(
	ctx context.Context,
	tx persistence.VersionLedger,
	tenantID, processID string,
	v uint64,
) error {
	info, err := m.load(ctx, tx, tenantID, processID)
	if err != nil {
		return err
	}

	info = info.Clone()
	info.Add(v)

	return m.save(ctx, tx, info)
}

// DeleteVersion records that version v of a process no longer exists.
//
// The highest version ever assigned is not changed, so v is never reused.
func (m *VersionManager) DeleteVersion(
	ctx context.Context,
	tx persistence.VersionLedger,
	tenantID, processID string,
	v uint64,
) error {
	info, err := m.load(ctx, tx, tenantID, processID)
	if err != nil {
		return err
	}

	if !slices.Contains(info.KnownVersions, v) {
		return nil
	}

	info = info.Clone()
	info.Remove(v)

	return m.save(ctx, tx, info)
}

// LatestVersion returns the greatest version of a process that currently
// exists, or 0 if there is none.
func (m *VersionManager) LatestVersion(
	ctx context.Context,
	tx persistence.VersionLedger,
	tenantID, processID string,
) (uint64, error) {
	info, err := m.load(ctx, tx, tenantID, processID)
	return info.Latest(), err
}

// HighestVersion returns the greatest version ever assigned to a process,
// including versions that have since been deleted, or 0 if there is none.
func (m *VersionManager) HighestVersion(
	ctx context.Context,
	tx persistence.VersionLedger,
	tenantID, processID string,
) (uint64, error) {
	info, err := m.load(ctx, tx, tenantID, processID)
	return info.HighestVersion, err
}

// VersionBefore returns the greatest existing version of a process that is
// strictly less than v.
//
// ok is false if there is no such version.
func (m *VersionManager) VersionBefore(
	ctx context.Context,
	tx persistence.VersionLedger,
	tenantID, processID string,
	v uint64,
) (_ uint64, ok bool, _ error) {
	info, err := m.load(ctx, tx, tenantID, processID)
	if err != nil {
		return 0, false, err
	}

	before, ok := info.Before(v)
	return before, ok, nil
}

// Clear discards the in-memory copy of the ledger. The persisted ledger is
// unaffected.
func (m *VersionManager) Clear() {
	clear(m.entries)
}

// load returns the ledger entry for a process, reading it from tx if it is not
// already in memory. A process with no recorded versions yields an empty entry.
func (m *VersionManager) load(
	ctx context.Context,
	tx persistence.VersionLedger,
	tenantID, processID string,
) (persistence.VersionInfo, error) {
	ref := processRef{tenantID, processID}

	if info, ok := m.entries[ref]; ok {
		return info, nil
	}

	info, ok, err := tx.LoadVersionInfo(ctx, tenantID, processID)
	if err != nil {
		return persistence.VersionInfo{}, err
	}

	if !ok {
		info = persistence.VersionInfo{
			TenantID:  tenantID,
			ProcessID: processID,
		}
	}

	m.entries[ref] = info

	return info, nil
}

// save persists info and, only once that succeeds, keeps it in memory.
func (m *VersionManager) save(
	ctx context.Context,
	tx persistence.VersionLedger,
	info persistence.VersionInfo,
) error {
	if err := tx.SaveVersionInfo(ctx, info); err != nil {
		return err
	}

	m.entries[processRef{info.TenantID, info.ProcessID}] = info

	return nil
}
