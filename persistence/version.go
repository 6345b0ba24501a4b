package persistence

import (
	"context"
	"slices"
)

// VersionInfo is the version ledger entry for a single process ID.
type VersionInfo struct {
	// TenantID is the ID of the tenant that owns the process.
	TenantID string

	// ProcessID is the process ID.
	ProcessID string

	// HighestVersion is the highest version ever assigned to the process,
	// including versions that have since been deleted. It is never lowered.
	HighestVersion uint64

	// KnownVersions is the set of versions that currently exist, in ascending
	// order.
	KnownVersions []uint64
}

// Clone returns a deep copy of the entry.
func (i VersionInfo) Clone() VersionInfo {
	i.KnownVersions = slices.Clone(i.KnownVersions)
	return i
}

// Latest returns the greatest version that currently exists, or 0 if there is
// none.
func (i VersionInfo) Latest() uint64 {
	if n := len(i.KnownVersions); n > 0 {
		return i.KnownVersions[n-1]
	}
	return 0
}

// Before returns the greatest existing version that is strictly less than v.
func (i VersionInfo) Before(v uint64) (uint64, bool) {
	n, _ := slices.BinarySearch(i.KnownVersions, v)
	if n == 0 {
		return 0, false
	}
	return i.KnownVersions[n-1], true
}

// Add records that version v exists.
func (i *VersionInfo) Add(v uint64) {
	if v > i.HighestVersion {
		i.HighestVersion = v
	}

	n, found := slices.BinarySearch(i.KnownVersions, v)
	if !found {
		i.KnownVersions = slices.Insert(i.KnownVersions, n, v)
	}
}

// Remove records that version v no longer exists. HighestVersion is unchanged.
func (i *VersionInfo) Remove(v uint64) {
	if n, found := slices.BinarySearch(i.KnownVersions, v); found {
		i.KnownVersions = slices.Delete(i.KnownVersions, n, n+1)
	}
}

// VersionLedger is an interface for reading and writing the version ledger.
type VersionLedger interface {
	// LoadVersionInfo loads the ledger entry for a process ID.
	//
	// ok is false if no version of the process has ever been recorded.
	LoadVersionInfo(
		ctx context.Context,
		tenantID, processID string,
	) (info VersionInfo, ok bool, err error)

	// SaveVersionInfo creates or replaces a ledger entry.
	SaveVersionInfo(ctx context.Context, info VersionInfo) error
}
