package memorypersistence

import (
	"context"
	"slices"

	"github.com/dogmatiq/procstore/persistence"
)

// SaveProcessDefinition creates or replaces a process definition under both
// indexes.
func (t *transaction) SaveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	dk := definitionKey{def.TenantID, def.Key}
	vk := versionKey{def.TenantID, def.ProcessID, def.Version}

	if existing, ok := t.tables.byVersion[vk]; ok && existing.Key != def.Key {
		return persistence.DuplicateVersionError{
			TenantID:    def.TenantID,
			ProcessID:   def.ProcessID,
			Version:     def.Version,
			Key:         def.Key,
			ExistingKey: existing.Key,
		}
	}

	if prev, ok := t.tables.byKey[dk]; ok {
		delete(t.tables.byVersion, versionKey{prev.TenantID, prev.ProcessID, prev.Version})
	}

	def = def.Clone()
	t.tables.byKey[dk] = def
	t.tables.byVersion[vk] = def

	return nil
}

// LoadProcessDefinitionByKey loads the process definition with the given key.
func (t *transaction) LoadProcessDefinitionByKey(
	ctx context.Context,
	tenantID string,
	key uint64,
) (persistence.ProcessDefinition, bool, error) {
	if err := t.begin(ctx); err != nil {
		return persistence.ProcessDefinition{}, false, err
	}

	def, ok := t.tables.byKey[definitionKey{tenantID, key}]
	return def.Clone(), ok, nil
}

// LoadProcessDefinitionByVersion loads a specific version of a process.
func (t *transaction) LoadProcessDefinitionByVersion(
	ctx context.Context,
	tenantID, processID string,
	version uint64,
) (persistence.ProcessDefinition, bool, error) {
	if err := t.begin(ctx); err != nil {
		return persistence.ProcessDefinition{}, false, err
	}

	def, ok := t.tables.byVersion[versionKey{tenantID, processID, version}]
	return def.Clone(), ok, nil
}

// RemoveProcessDefinition removes a process definition from both indexes.
func (t *transaction) RemoveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	dk := definitionKey{def.TenantID, def.Key}
	stored, ok := t.tables.byKey[dk]
	if !ok {
		return persistence.NotFoundError{
			Table:    persistence.RecordsByKeyTable,
			TenantID: def.TenantID,
			Key:      persistence.KeyString(def.Key),
		}
	}

	vk := versionKey{def.TenantID, def.ProcessID, def.Version}
	if _, ok := t.tables.byVersion[vk]; !ok ||
		stored.ProcessID != def.ProcessID ||
		stored.Version != def.Version {
		return persistence.NotFoundError{
			Table:    persistence.RecordsByIDVersionTable,
			TenantID: def.TenantID,
			Key:      persistence.VersionKeyString(def.ProcessID, def.Version),
		}
	}

	delete(t.tables.byKey, dk)
	delete(t.tables.byVersion, vk)

	return nil
}

// UpdateProcessDefinitionState sets the lifecycle state of an existing process
// definition.
func (t *transaction) UpdateProcessDefinitionState(
	ctx context.Context,
	tenantID string,
	key uint64,
	state persistence.LifecycleState,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	dk := definitionKey{tenantID, key}
	def, ok := t.tables.byKey[dk]
	if !ok {
		return persistence.NotFoundError{
			Table:    persistence.RecordsByKeyTable,
			TenantID: tenantID,
			Key:      persistence.KeyString(key),
		}
	}

	def.State = state
	t.tables.byKey[dk] = def
	t.tables.byVersion[versionKey{def.TenantID, def.ProcessID, def.Version}] = def

	return nil
}

// RangeProcessDefinitions calls fn for each of the tenant's process
// definitions, in order of ascending key, until fn returns false.
func (t *transaction) RangeProcessDefinitions(
	ctx context.Context,
	tenantID string,
	fn func(persistence.ProcessDefinition) bool,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	var keys []uint64
	for k := range t.tables.byKey {
		if k.TenantID == tenantID {
			keys = append(keys, k.Key)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		def := t.tables.byKey[definitionKey{tenantID, k}]
		if !fn(def.Clone()) {
			return nil
		}
	}

	return nil
}
