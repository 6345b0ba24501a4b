package memorypersistence

import (
	"context"
	"sync"

	"github.com/dogmatiq/procstore/persistence"
)

// dataStore is an implementation of persistence.DataStore for the in-memory
// persistence provider.
type dataStore struct {
	db *database

	m      sync.Mutex
	closed bool
}

// Begin starts a new transaction.
func (ds *dataStore) Begin(ctx context.Context) (persistence.Transaction, error) {
	if ds.isClosed() {
		return nil, persistence.ErrDataStoreClosed
	}

	if err := ds.db.tx.Lock(ctx); err != nil {
		return nil, err
	}

	// Check again, in case the store was closed while we were waiting for
	// the lock.
	if ds.isClosed() {
		ds.db.tx.Unlock()
		return nil, persistence.ErrDataStoreClosed
	}

	return &transaction{
		ds:     ds,
		tables: ds.db.snapshot(),
	}, nil
}

// Close closes the data store.
func (ds *dataStore) Close() error {
	ds.m.Lock()
	defer ds.m.Unlock()

	if ds.closed {
		return persistence.ErrDataStoreClosed
	}

	ds.closed = true
	ds.db.Close()

	return nil
}

func (ds *dataStore) isClosed() bool {
	ds.m.Lock()
	defer ds.m.Unlock()

	return ds.closed
}
