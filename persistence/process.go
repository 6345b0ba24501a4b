package persistence

import (
	"bytes"
	"context"
	"fmt"
)

// LifecycleState is the lifecycle state of a deployed process definition.
type LifecycleState int

const (
	// ProcessActive is the state of a process definition that may be used to
	// start new instances.
	ProcessActive LifecycleState = iota

	// ProcessPendingDeletion is the state of a process definition that has been
	// marked for deletion and is awaiting cleanup.
	ProcessPendingDeletion
)

// String returns a human-readable representation of the state.
func (s LifecycleState) String() string {
	switch s {
	case ProcessActive:
		return "active"
	case ProcessPendingDeletion:
		return "pending-deletion"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ProcessDefinition is the persisted form of a deployed process definition.
//
// A process definition is immutable once deployed. A new version of the same
// process is a new ProcessDefinition with a new key. The only field that is
// ever mutated in place is State.
type ProcessDefinition struct {
	// TenantID is the ID of the tenant that owns the definition.
	TenantID string

	// Key is the definition key. It is unique within the tenant.
	Key uint64

	// ProcessID is the stable, logical name of the process.
	ProcessID string

	// Version is the version of the process. The pair of ProcessID and Version
	// is unique within the tenant.
	Version uint64

	// ResourceName is the name of the deployment resource that contains the
	// definition.
	ResourceName string

	// Checksum is the digest of Resource.
	Checksum []byte

	// Resource is the raw definition document.
	Resource []byte

	// DeploymentKey is the key of the deployment that introduced the
	// definition.
	DeploymentKey uint64

	// State is the definition's lifecycle state.
	State LifecycleState
}

// Clone returns a deep copy of the definition.
//
// The returned definition does not share any byte-slices with def.
func (def ProcessDefinition) Clone() ProcessDefinition {
	def.Checksum = bytes.Clone(def.Checksum)
	def.Resource = bytes.Clone(def.Resource)
	return def
}

// ProcessDefinitionTable is an interface for reading and writing the persisted
// process definitions.
//
// Each definition is indexed both by (tenant, key) and by (tenant, process ID,
// version). Implementations keep both indexes in sync within a single
// transaction.
type ProcessDefinitionTable interface {
	// SaveProcessDefinition creates or replaces a process definition under
	// both indexes.
	//
	// If a definition with the same key is stored under a different process ID
	// or version, its old version index entry is removed. It returns a
	// DuplicateVersionError if def's version is held by a definition with
	// another key.
	SaveProcessDefinition(ctx context.Context, def ProcessDefinition) error

	// LoadProcessDefinitionByKey loads the process definition with the given
	// key.
	//
	// ok is false if there is no such definition.
	LoadProcessDefinitionByKey(
		ctx context.Context,
		tenantID string,
		key uint64,
	) (def ProcessDefinition, ok bool, err error)

	// LoadProcessDefinitionByVersion loads a specific version of a process.
	//
	// ok is false if there is no such definition.
	LoadProcessDefinitionByVersion(
		ctx context.Context,
		tenantID, processID string,
		version uint64,
	) (def ProcessDefinition, ok bool, err error)

	// RemoveProcessDefinition removes a process definition from both indexes.
	//
	// It returns a NotFoundError if the definition is missing from either
	// index, or if the definition stored under def's key has a different
	// process ID or version. Nothing is removed in that case.
	RemoveProcessDefinition(ctx context.Context, def ProcessDefinition) error

	// UpdateProcessDefinitionState sets the lifecycle state of an existing
	// process definition.
	//
	// It returns a NotFoundError if there is no definition with the given key.
	UpdateProcessDefinitionState(
		ctx context.Context,
		tenantID string,
		key uint64,
		state LifecycleState,
	) error

	// RangeProcessDefinitions calls fn for each of the tenant's process
	// definitions, in order of ascending key, until fn returns false.
	RangeProcessDefinitions(
		ctx context.Context,
		tenantID string,
		fn func(ProcessDefinition) bool,
	) error
}
