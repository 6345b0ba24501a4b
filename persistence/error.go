package persistence

import (
	"fmt"
)

// NotFoundError is an error indicating that a record that was expected to
// exist could not be found.
type NotFoundError struct {
	// Table is the name of the table in which the record was expected.
	Table string

	// TenantID is the ID of the tenant that owns the record.
	TenantID string

	// Key is a human-readable representation of the record's key within the
	// tenant.
	Key string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf(
		"record not found in %s table (tenant '%s', key %s)",
		e.Table,
		e.TenantID,
		e.Key,
	)
}

// Table names used by NotFoundError.
const (
	RecordsByKeyTable       = "records_by_key"
	RecordsByIDVersionTable = "records_by_id_version"
)

// KeyString returns the representation of a definition key used in
// NotFoundError.
func KeyString(key uint64) string {
	return fmt.Sprintf("%d", key)
}

// VersionKeyString returns the representation of a (process ID, version) pair
// used in NotFoundError.
func VersionKeyString(processID string, version uint64) string {
	return fmt.Sprintf("%s@%d", processID, version)
}

// DuplicateVersionError is an error indicating that a process definition could
// not be saved because its (process ID, version) pair is already used by a
// definition with a different key.
type DuplicateVersionError struct {
	TenantID  string
	ProcessID string
	Version   uint64

	// Key is the key of the definition that could not be saved.
	Key uint64

	// ExistingKey is the key of the definition that holds the version.
	ExistingKey uint64
}

func (e DuplicateVersionError) Error() string {
	return fmt.Sprintf(
		"can not save process definition with key %d (tenant '%s'), version %d of process '%s' already belongs to the definition with key %d",
		e.Key,
		e.TenantID,
		e.Version,
		e.ProcessID,
		e.ExistingKey,
	)
}
