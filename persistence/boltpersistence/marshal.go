package boltpersistence

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dogmatiq/procstore/internal/x/bboltx"
	"github.com/dogmatiq/procstore/persistence"
	"google.golang.org/protobuf/encoding/protowire"
)

// Keys are tenant-prefixed so that all of a tenant's records are contiguous
// within each bucket. Strings are length-prefixed so that no key is a prefix
// of a key with a different tenant or process ID. Integers are big-endian so
// that the byte order matches the numeric order.

// tenantPrefix returns the key prefix shared by all of a tenant's records.
func tenantPrefix(tenantID string) []byte {
	return appendString(nil, tenantID)
}

// definitionKey returns the key used in the records_by_key bucket.
func definitionKey(tenantID string, key uint64) []byte {
	return binary.BigEndian.AppendUint64(tenantPrefix(tenantID), key)
}

// processKey returns the key used in the version_ledger and digest_by_id
// buckets.
func processKey(tenantID, processID string) []byte {
	return appendString(tenantPrefix(tenantID), processID)
}

// versionKey returns the key used in the records_by_id_version bucket.
func versionKey(tenantID, processID string, version uint64) []byte {
	return binary.BigEndian.AppendUint64(processKey(tenantID, processID), version)
}

func appendString(data []byte, s string) []byte {
	data = binary.AppendUvarint(data, uint64(len(s)))
	return append(data, s...)
}

// Field numbers of the ProcessDefinition wire format.
const (
	defTenantID      protowire.Number = 1
	defKey           protowire.Number = 2
	defProcessID     protowire.Number = 3
	defVersion       protowire.Number = 4
	defResourceName  protowire.Number = 5
	defChecksum      protowire.Number = 6
	defResource      protowire.Number = 7
	defDeploymentKey protowire.Number = 8
	defState         protowire.Number = 9
)

// marshalProcessDefinition marshals a process definition to its protocol
// buffers wire format representation.
func marshalProcessDefinition(def persistence.ProcessDefinition) []byte {
	var data []byte

	data = protowire.AppendTag(data, defTenantID, protowire.BytesType)
	data = protowire.AppendString(data, def.TenantID)
	data = protowire.AppendTag(data, defKey, protowire.VarintType)
	data = protowire.AppendVarint(data, def.Key)
	data = protowire.AppendTag(data, defProcessID, protowire.BytesType)
	data = protowire.AppendString(data, def.ProcessID)
	data = protowire.AppendTag(data, defVersion, protowire.VarintType)
	data = protowire.AppendVarint(data, def.Version)
	data = protowire.AppendTag(data, defResourceName, protowire.BytesType)
	data = protowire.AppendString(data, def.ResourceName)
	data = protowire.AppendTag(data, defChecksum, protowire.BytesType)
	data = protowire.AppendBytes(data, def.Checksum)
	data = protowire.AppendTag(data, defResource, protowire.BytesType)
	data = protowire.AppendBytes(data, def.Resource)
	data = protowire.AppendTag(data, defDeploymentKey, protowire.VarintType)
	data = protowire.AppendVarint(data, def.DeploymentKey)
	data = protowire.AppendTag(data, defState, protowire.VarintType)
	data = protowire.AppendVarint(data, uint64(def.State))

	return data
}

// unmarshalProcessDefinition unmarshals a process definition from its protocol
// buffers wire format representation.
//
// The returned definition does not share memory with data, which is only
// valid for the life-time of the BoltDB transaction.
func unmarshalProcessDefinition(data []byte) persistence.ProcessDefinition {
	var def persistence.ProcessDefinition

	unmarshalFields(data, func(num protowire.Number, d *decoder) bool {
		switch num {
		case defTenantID:
			def.TenantID = d.string()
		case defKey:
			def.Key = d.varint()
		case defProcessID:
			def.ProcessID = d.string()
		case defVersion:
			def.Version = d.varint()
		case defResourceName:
			def.ResourceName = d.string()
		case defChecksum:
			def.Checksum = d.bytes()
		case defResource:
			def.Resource = d.bytes()
		case defDeploymentKey:
			def.DeploymentKey = d.varint()
		case defState:
			def.State = persistence.LifecycleState(d.varint())
		default:
			return false
		}
		return true
	})

	return def
}

// Field numbers of the VersionInfo wire format.
const (
	verTenantID       protowire.Number = 1
	verProcessID      protowire.Number = 2
	verHighestVersion protowire.Number = 3
	verKnownVersions  protowire.Number = 4
)

// marshalVersionInfo marshals a version ledger entry to its protocol buffers
// wire format representation. Known versions are encoded as a packed repeated
// field.
func marshalVersionInfo(info persistence.VersionInfo) []byte {
	var data []byte

	data = protowire.AppendTag(data, verTenantID, protowire.BytesType)
	data = protowire.AppendString(data, info.TenantID)
	data = protowire.AppendTag(data, verProcessID, protowire.BytesType)
	data = protowire.AppendString(data, info.ProcessID)
	data = protowire.AppendTag(data, verHighestVersion, protowire.VarintType)
	data = protowire.AppendVarint(data, info.HighestVersion)

	var packed []byte
	for _, v := range info.KnownVersions {
		packed = protowire.AppendVarint(packed, v)
	}

	data = protowire.AppendTag(data, verKnownVersions, protowire.BytesType)
	data = protowire.AppendBytes(data, packed)

	return data
}

// unmarshalVersionInfo unmarshals a version ledger entry from its protocol
// buffers wire format representation.
func unmarshalVersionInfo(data []byte) persistence.VersionInfo {
	var info persistence.VersionInfo

	unmarshalFields(data, func(num protowire.Number, d *decoder) bool {
		switch num {
		case verTenantID:
			info.TenantID = d.string()
		case verProcessID:
			info.ProcessID = d.string()
		case verHighestVersion:
			info.HighestVersion = d.varint()
		case verKnownVersions:
			packed := d.raw()
			for len(packed) > 0 {
				v, n := protowire.ConsumeVarint(packed)
				mustConsume(n)
				info.KnownVersions = append(info.KnownVersions, v)
				packed = packed[n:]
			}
		default:
			return false
		}
		return true
	})

	return info
}

// unmarshalFields calls fn for each field in data.
//
// fn returns false if it does not recognize the field, in which case the
// field's value is skipped.
func unmarshalFields(data []byte, fn func(protowire.Number, *decoder) bool) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		mustConsume(n)
		data = data[n:]

		d := &decoder{typ: typ, data: data}
		if !fn(num, d) {
			d.n = protowire.ConsumeFieldValue(num, typ, data)
			mustConsume(d.n)
		}

		data = data[d.n:]
	}
}

// decoder decodes the value of a single field.
type decoder struct {
	typ  protowire.Type
	data []byte
	n    int
}

func (d *decoder) varint() uint64 {
	d.expect(protowire.VarintType)
	v, n := protowire.ConsumeVarint(d.data)
	mustConsume(n)
	d.n = n
	return v
}

func (d *decoder) raw() []byte {
	d.expect(protowire.BytesType)
	v, n := protowire.ConsumeBytes(d.data)
	mustConsume(n)
	d.n = n
	return v
}

func (d *decoder) bytes() []byte {
	if v := d.raw(); len(v) > 0 {
		return bytes.Clone(v)
	}
	return nil
}

func (d *decoder) string() string {
	return string(d.raw())
}

func (d *decoder) expect(typ protowire.Type) {
	if d.typ != typ {
		panic(bboltx.PanicSentinel{
			Cause: fmt.Errorf("data is corrupt, expected wire type %d, got %d", typ, d.typ),
		})
	}
}

// mustConsume panics if n, the result of one of the protowire.ConsumeXXX()
// functions, indicates an error.
func mustConsume(n int) {
	if n < 0 {
		panic(bboltx.PanicSentinel{
			Cause: fmt.Errorf("data is corrupt: %w", protowire.ParseError(n)),
		})
	}
}
