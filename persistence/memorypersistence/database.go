package memorypersistence

import (
	"maps"
	"sync"

	"github.com/dogmatiq/procstore/internal/x/syncx"
	"github.com/dogmatiq/procstore/persistence"
)

// database is an in-memory database shared by all data-stores opened with the
// same name.
type database struct {
	// tx is held for the duration of each transaction.
	tx syncx.Mutex

	m      sync.Mutex
	isOpen bool
	tables tables
}

// TryOpen marks the database as open. It returns false if it is already open.
func (db *database) TryOpen() bool {
	db.m.Lock()
	defer db.m.Unlock()

	if db.isOpen {
		return false
	}

	db.isOpen = true
	return true
}

// Close marks the database as closed.
func (db *database) Close() {
	db.m.Lock()
	defer db.m.Unlock()

	db.isOpen = false
}

// snapshot returns a copy of the database tables that can be modified without
// affecting the committed data.
func (db *database) snapshot() tables {
	db.m.Lock()
	defer db.m.Unlock()

	return db.tables.clone()
}

// replace replaces the committed tables with t.
func (db *database) replace(t tables) {
	db.m.Lock()
	defer db.m.Unlock()

	db.tables = t
}

// definitionKey is the composite key of the records_by_key index.
type definitionKey struct {
	TenantID string
	Key      uint64
}

// versionKey is the composite key of the records_by_id_version index.
type versionKey struct {
	TenantID  string
	ProcessID string
	Version   uint64
}

// processKey is the composite key of the version ledger and digest tables.
type processKey struct {
	TenantID  string
	ProcessID string
}

// tables contains the data of a database.
//
// Values stored in the tables are never mutated in place, so a shallow copy of
// each map is enough to isolate a transaction from the committed data.
type tables struct {
	byKey     map[definitionKey]persistence.ProcessDefinition
	byVersion map[versionKey]persistence.ProcessDefinition
	versions  map[processKey]persistence.VersionInfo
	digests   map[processKey][]byte
}

func (t tables) clone() tables {
	return tables{
		byKey:     cloneMap(t.byKey),
		byVersion: cloneMap(t.byVersion),
		versions:  cloneMap(t.versions),
		digests:   cloneMap(t.digests),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return maps.Clone(m)
}
