package boltpersistence

import (
	"context"

	"github.com/dogmatiq/procstore/internal/x/bboltx"
	"github.com/dogmatiq/procstore/internal/x/syncx"
	"go.etcd.io/bbolt"
)

// database wraps a BoltDB database with a context-aware mutex.
//
// BoltDB only allows a single write transaction at a time, but blocks in
// DB.Begin() without regard for any context. The transaction type acquires
// the mutex before starting the underlying BoltDB transaction instead.
type database struct {
	m      syncx.Mutex
	actual *bbolt.DB
	close  func(*bbolt.DB) error
}

// Begin starts a write transaction by acquiring the lock on the database.
func (db *database) Begin(ctx context.Context) *bbolt.Tx {
	err := db.m.Lock(ctx)
	bboltx.Must(err)

	tx, err := db.actual.Begin(true)
	if err != nil {
		db.m.Unlock()
		bboltx.Must(err)
	}

	return tx
}

// End releases the lock acquired by Begin().
func (db *database) End() {
	db.m.Unlock()
}

// Close closes the database.
func (db *database) Close() error {
	return db.close(db.actual)
}
