package boltpersistence

import (
	"bytes"
	"context"

	"github.com/dogmatiq/procstore/internal/x/bboltx"
	"github.com/dogmatiq/procstore/persistence"
)

var (
	// recordsByKeyBucketKey is the key of the bucket that indexes process
	// definitions by (tenant, definition key).
	//
	// The keys are produced by definitionKey(). The values are process
	// definitions marshaled by marshalProcessDefinition().
	recordsByKeyBucketKey = []byte(persistence.RecordsByKeyTable)

	// recordsByVersionBucketKey is the key of the bucket that indexes process
	// definitions by (tenant, process ID, version).
	//
	// The keys are produced by versionKey(). The values are the same as those
	// in the records_by_key bucket.
	recordsByVersionBucketKey = []byte(persistence.RecordsByIDVersionTable)
)

// SaveProcessDefinition creates or replaces a process definition under both
// indexes.
func (t *transaction) SaveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) (err error) {
	defer bboltx.Recover(&err)

	byKey := t.bucket(ctx, recordsByKeyBucketKey)
	byVersion := t.bucket(ctx, recordsByVersionBucketKey)

	if data := byVersion.Get(versionKey(def.TenantID, def.ProcessID, def.Version)); data != nil {
		if existing := unmarshalProcessDefinition(data); existing.Key != def.Key {
			return persistence.DuplicateVersionError{
				TenantID:    def.TenantID,
				ProcessID:   def.ProcessID,
				Version:     def.Version,
				Key:         def.Key,
				ExistingKey: existing.Key,
			}
		}
	}

	if data := byKey.Get(definitionKey(def.TenantID, def.Key)); data != nil {
		prev := unmarshalProcessDefinition(data)
		if prev.ProcessID != def.ProcessID || prev.Version != def.Version {
			bboltx.Delete(byVersion, versionKey(prev.TenantID, prev.ProcessID, prev.Version))
		}
	}

	t.saveProcessDefinition(ctx, def)

	return nil
}

// LoadProcessDefinitionByKey loads the process definition with the given key.
func (t *transaction) LoadProcessDefinitionByKey(
	ctx context.Context,
	tenantID string,
	key uint64,
) (_ persistence.ProcessDefinition, _ bool, err error) {
	defer bboltx.Recover(&err)

	data := t.bucket(ctx, recordsByKeyBucketKey).Get(definitionKey(tenantID, key))
	if data == nil {
		return persistence.ProcessDefinition{}, false, nil
	}

	return unmarshalProcessDefinition(data), true, nil
}

// LoadProcessDefinitionByVersion loads a specific version of a process.
func (t *transaction) LoadProcessDefinitionByVersion(
	ctx context.Context,
	tenantID, processID string,
	version uint64,
) (_ persistence.ProcessDefinition, _ bool, err error) {
	defer bboltx.Recover(&err)

	data := t.bucket(ctx, recordsByVersionBucketKey).Get(versionKey(tenantID, processID, version))
	if data == nil {
		return persistence.ProcessDefinition{}, false, nil
	}

	return unmarshalProcessDefinition(data), true, nil
}

// RemoveProcessDefinition removes a process definition from both indexes.
func (t *transaction) RemoveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) (err error) {
	defer bboltx.Recover(&err)

	byKey := t.bucket(ctx, recordsByKeyBucketKey)
	byVersion := t.bucket(ctx, recordsByVersionBucketKey)

	dk := definitionKey(def.TenantID, def.Key)
	data := byKey.Get(dk)
	if data == nil {
		return persistence.NotFoundError{
			Table:    persistence.RecordsByKeyTable,
			TenantID: def.TenantID,
			Key:      persistence.KeyString(def.Key),
		}
	}

	// The version index entry must belong to the same definition as the key
	// index entry.
	stored := unmarshalProcessDefinition(data)
	vk := versionKey(def.TenantID, def.ProcessID, def.Version)

	if stored.ProcessID != def.ProcessID ||
		stored.Version != def.Version ||
		byVersion.Get(vk) == nil {
		return persistence.NotFoundError{
			Table:    persistence.RecordsByIDVersionTable,
			TenantID: def.TenantID,
			Key:      persistence.VersionKeyString(def.ProcessID, def.Version),
		}
	}

	bboltx.Delete(byKey, dk)
	bboltx.Delete(byVersion, vk)

	return nil
}

// UpdateProcessDefinitionState sets the lifecycle state of an existing process
// definition.
func (t *transaction) UpdateProcessDefinitionState(
	ctx context.Context,
	tenantID string,
	key uint64,
	state persistence.LifecycleState,
) (err error) {
	defer bboltx.Recover(&err)

	data := t.bucket(ctx, recordsByKeyBucketKey).Get(definitionKey(tenantID, key))
	if data == nil {
		return persistence.NotFoundError{
			Table:    persistence.RecordsByKeyTable,
			TenantID: tenantID,
			Key:      persistence.KeyString(key),
		}
	}

	def := unmarshalProcessDefinition(data)
	def.State = state
	t.saveProcessDefinition(ctx, def)

	return nil
}

// RangeProcessDefinitions calls fn for each of the tenant's process
// definitions, in order of ascending key, until fn returns false.
func (t *transaction) RangeProcessDefinitions(
	ctx context.Context,
	tenantID string,
	fn func(persistence.ProcessDefinition) bool,
) (err error) {
	defer bboltx.Recover(&err)

	prefix := tenantPrefix(tenantID)
	c := t.bucket(ctx, recordsByKeyBucketKey).Cursor()

	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if !fn(unmarshalProcessDefinition(v)) {
			break
		}
	}

	return nil
}

// saveProcessDefinition writes def to both indexes.
func (t *transaction) saveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) {
	data := marshalProcessDefinition(def)

	bboltx.Put(
		t.bucket(ctx, recordsByKeyBucketKey),
		definitionKey(def.TenantID, def.Key),
		data,
	)

	bboltx.Put(
		t.bucket(ctx, recordsByVersionBucketKey),
		versionKey(def.TenantID, def.ProcessID, def.Version),
		data,
	)
}
