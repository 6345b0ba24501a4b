// Package deployment maintains the deployed process definitions: their
// persisted records, the version ledger, the digest of each process's latest
// resource, and a bounded cache of executable processes.
package deployment

import (
	"context"
	"fmt"
	"sync"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/procstore/internal/x/loggingx"
	"github.com/dogmatiq/procstore/model"
	"github.com/dogmatiq/procstore/persistence"
)

// State is the process-definition state of a single data store.
//
// Every operation is performed within a transaction supplied by the caller.
// The caches and the version ledger's in-memory copy are not covered by that
// transaction; use State.Transaction() so that they are discarded if the
// transaction is rolled-back.
type State struct {
	transformer model.Transformer
	logger      logging.Logger

	m        sync.Mutex
	versions *VersionManager
	cache    *processCache
}

// NewState returns a new State that uses t to build executable processes from
// persisted definitions.
func NewState(t model.Transformer, opts ...Option) *State {
	o := resolveOptions(opts)
	logger := loggingx.WithPrefix(o.Logger, "deployment | ")

	return &State{
		transformer: t,
		logger:      logger,
		versions:    NewVersionManager(),
		cache:       newProcessCache(o.CacheCapacity, logger),
	}
}

// Transaction executes fn inside a transaction on ds.
//
// If the transaction is not committed the caches and the in-memory version
// ledger are cleared, as they may contain changes that were rolled-back.
func (s *State) Transaction(
	ctx context.Context,
	ds persistence.DataStore,
	fn func(persistence.ManagedTransaction) error,
) error {
	err := persistence.WithTransaction(ctx, ds, fn)
	if err != nil {
		s.ClearCache()
	}
	return err
}

// PutDeployment stores each process in a deployment.
//
// Each process is stored with the content of the resource that has the same
// name as the process's ResourceName. Processes with no matching resource are
// skipped.
func (s *State) PutDeployment(
	ctx context.Context,
	tx persistence.ManagedTransaction,
	rec Record,
) error {
	s.m.Lock()
	defer s.m.Unlock()

	for _, m := range rec.Processes {
		for _, r := range rec.Resources {
			if r.Name != m.ResourceName {
				continue
			}

			checksum := m.Checksum
			if len(checksum) == 0 {
				checksum = Checksum(r.Content)
			}

			def := persistence.ProcessDefinition{
				TenantID:      rec.TenantID,
				ProcessID:     m.ProcessID,
				Version:       m.Version,
				ResourceName:  r.Name,
				Checksum:      checksum,
				Resource:      r.Content,
				DeploymentKey: rec.Key,
			}

			if err := s.putProcess(ctx, tx, m.Key, def); err != nil {
				return err
			}
		}
	}

	return nil
}

// PutProcess stores a process definition under the given key, records its
// version and sets the process's digest to the definition's checksum.
//
// The digest is always replaced, even if def is not the latest version. It
// returns an error if def.Version is 0.
// Storing a definition under an existing key replaces that definition.
func (s *State) PutProcess(
	ctx context.Context,
	tx persistence.ManagedTransaction,
	key uint64,
	def persistence.ProcessDefinition,
) error {
	s.m.Lock()
	defer s.m.Unlock()

	return s.putProcess(ctx, tx, key, def)
}

func (s *State) putProcess(
	ctx context.Context,
	tx persistence.ManagedTransaction,
	key uint64,
	def persistence.ProcessDefinition,
) error {
	if def.Version == 0 {
		return fmt.Errorf(
			"can not store process '%s' with key %d (tenant '%s'), versions start at 1",
			def.ProcessID,
			key,
			def.TenantID,
		)
	}

	def.Key = key

	k, v := keyRef{def.TenantID, key}, versionRef{def.TenantID, def.ProcessID, def.Version}
	if p, ok := s.cache.peekByKey(k); ok {
		s.cache.invalidate(refsOf(p))
	}
	s.cache.invalidate(k, v)

	if err := tx.SaveProcessDefinition(ctx, def); err != nil {
		return err
	}

	if err := s.versions.AddVersion(ctx, tx, def.TenantID, def.ProcessID, def.Version); err != nil {
		return err
	}

	if err := s.putLatestVersionDigest(ctx, tx, def); err != nil {
		return err
	}

	logging.Debug(
		s.logger,
		"@%s | stored process '%s' v%d with key %d",
		def.TenantID,
		def.ProcessID,
		def.Version,
		def.Key,
	)

	return nil
}

// PutLatestVersionDigest sets the digest of def's process to def's checksum.
func (s *State) PutLatestVersionDigest(
	ctx context.Context,
	tx persistence.DigestTable,
	def persistence.ProcessDefinition,
) error {
	return s.putLatestVersionDigest(ctx, tx, def)
}

func (s *State) putLatestVersionDigest(
	ctx context.Context,
	tx persistence.DigestTable,
	def persistence.ProcessDefinition,
) error {
	return tx.SaveDigest(ctx, def.TenantID, def.ProcessID, def.Checksum)
}

// LatestVersionDigest returns the digest of the latest resource deployed for a
// process.
//
// ok is false if there is no digest for the process.
func (s *State) LatestVersionDigest(
	ctx context.Context,
	tx persistence.DigestTable,
	processID, tenantID string,
) (checksum []byte, ok bool, err error) {
	return tx.LoadDigest(ctx, tenantID, processID)
}

// UpdateProcessState sets the lifecycle state of the process definition with
// the given key.
//
// It returns a persistence.NotFoundError if there is no such definition.
func (s *State) UpdateProcessState(
	ctx context.Context,
	tx persistence.ManagedTransaction,
	tenantID string,
	key uint64,
	state persistence.LifecycleState,
) error {
	s.m.Lock()
	defer s.m.Unlock()

	if err := tx.UpdateProcessDefinitionState(ctx, tenantID, key, state); err != nil {
		return err
	}

	if p, ok := s.cache.peekByKey(keyRef{tenantID, key}); ok {
		s.cache.put(p.withState(state))
		return nil
	}

	def, ok, err := tx.LoadProcessDefinitionByKey(ctx, tenantID, key)
	if err != nil || !ok {
		return err
	}

	_, err = s.reconstruct(def)
	return err
}

// DeleteProcess removes a process definition.
//
// The definition is removed from both indexes and the caches. If def is the
// latest version of its process, the process's digest is removed. Finally def's
// version is removed from the ledger. The highest version ever assigned to the
// process is unchanged.
//
// It returns a persistence.NotFoundError if the definition does not exist.
func (s *State) DeleteProcess(
	ctx context.Context,
	tx persistence.ManagedTransaction,
	def persistence.ProcessDefinition,
) error {
	s.m.Lock()
	defer s.m.Unlock()

	if err := tx.RemoveProcessDefinition(ctx, def); err != nil {
		return err
	}

	s.cache.invalidate(
		keyRef{def.TenantID, def.Key},
		versionRef{def.TenantID, def.ProcessID, def.Version},
	)

	latest, err := s.versions.LatestVersion(ctx, tx, def.TenantID, def.ProcessID)
	if err != nil {
		return err
	}

	// The digest may already be gone if the latest version was deleted before,
	// RemoveDigest tolerates that.
	if def.Version == latest {
		if err := tx.RemoveDigest(ctx, def.TenantID, def.ProcessID); err != nil {
			return err
		}
	}

	if err := s.versions.DeleteVersion(ctx, tx, def.TenantID, def.ProcessID, def.Version); err != nil {
		return err
	}

	logging.Debug(
		s.logger,
		"@%s | deleted process '%s' v%d with key %d",
		def.TenantID,
		def.ProcessID,
		def.Version,
		def.Key,
	)

	return nil
}

// LatestProcessByProcessID returns the latest version of a process.
//
// ok is false if no version of the process exists.
func (s *State) LatestProcessByProcessID(
	ctx context.Context,
	tx persistence.ManagedTransaction,
	processID, tenantID string,
) (_ *Process, ok bool, _ error) {
	s.m.Lock()
	defer s.m.Unlock()

	latest, err := s.versions.LatestVersion(ctx, tx, tenantID, processID)
	if err != nil || latest == 0 {
		return nil, false, err
	}

	return s.processByVersion(ctx, tx, processID, latest, tenantID)
}

// ProcessByProcessIDAndVersion returns a specific version of a process.
//
// ok is false if the version does not exist.
func (s *State) ProcessByProcessIDAndVersion(
	ctx context.Context,
	tx persistence.ManagedTransaction,
	processID string,
	version uint64,
	tenantID string,
) (_ *Process, ok bool, _ error) {
	s.m.Lock()
	defer s.m.Unlock()

	return s.processByVersion(ctx, tx, processID, version, tenantID)
}

func (s *State) processByVersion(
	ctx context.Context,
	tx persistence.ProcessDefinitionTable,
	processID string,
	version uint64,
	tenantID string,
) (*Process, bool, error) {
	if p, ok := s.cache.getByVersion(versionRef{tenantID, processID, version}); ok {
		return p, true, nil
	}

	def, ok, err := tx.LoadProcessDefinitionByVersion(ctx, tenantID, processID, version)
	if err != nil || !ok {
		return nil, false, err
	}

	p, err := s.reconstruct(def)
	return p, err == nil, err
}

// ProcessByKey returns the process with the given definition key.
//
// ok is false if there is no such process.
func (s *State) ProcessByKey(
	ctx context.Context,
	tx persistence.ProcessDefinitionTable,
	key uint64,
	tenantID string,
) (_ *Process, ok bool, _ error) {
	s.m.Lock()
	defer s.m.Unlock()

	if p, ok := s.cache.getByKey(keyRef{tenantID, key}); ok {
		return p, true, nil
	}

	def, ok, err := tx.LoadProcessDefinitionByKey(ctx, tenantID, key)
	if err != nil || !ok {
		return nil, false, err
	}

	p, err := s.reconstruct(def)
	return p, err == nil, err
}

// LatestProcessVersion returns the greatest version of a process that
// currently exists, or 0 if there is none.
func (s *State) LatestProcessVersion(
	ctx context.Context,
	tx persistence.VersionLedger,
	processID, tenantID string,
) (uint64, error) {
	s.m.Lock()
	defer s.m.Unlock()

	return s.versions.LatestVersion(ctx, tx, tenantID, processID)
}

// NextProcessVersion returns the version to assign to the next deployment of a
// process.
//
// It is one greater than the highest version ever assigned, so versions of
// deleted definitions are never reused.
func (s *State) NextProcessVersion(
	ctx context.Context,
	tx persistence.VersionLedger,
	processID, tenantID string,
) (uint64, error) {
	s.m.Lock()
	defer s.m.Unlock()

	v, err := s.versions.HighestVersion(ctx, tx, tenantID, processID)
	return v + 1, err
}

// ProcessVersionBefore returns the greatest existing version of a process that
// is less than version.
//
// ok is false if there is no such version.
func (s *State) ProcessVersionBefore(
	ctx context.Context,
	tx persistence.VersionLedger,
	processID string,
	version uint64,
	tenantID string,
) (_ uint64, ok bool, _ error) {
	s.m.Lock()
	defer s.m.Unlock()

	return s.versions.VersionBefore(ctx, tx, tenantID, processID, version)
}

// ClearCache discards all executable processes and the in-memory copy of the
// version ledger. Persisted data is unaffected.
func (s *State) ClearCache() {
	s.m.Lock()
	defer s.m.Unlock()

	s.cache.clear()
	s.versions.Clear()

	logging.Debug(s.logger, "cache cleared")
}
