package boltpersistence

import (
	"context"
	"sync"

	"github.com/dogmatiq/procstore/persistence"
)

// dataStore is an implementation of persistence.DataStore for BoltDB.
//
// Each data-store keeps its tables in a separate root bucket, named after the
// data-store.
type dataStore struct {
	db   *database
	name []byte

	m       sync.RWMutex
	release func(string) error
}

// Begin starts a new transaction.
//
// The underlying BoltDB transaction is not started until the first operation
// is performed.
func (ds *dataStore) Begin(ctx context.Context) (persistence.Transaction, error) {
	if err := ds.checkOpen(); err != nil {
		return nil, err
	}

	return &transaction{ds: ds}, nil
}

// Close closes the data store.
//
// Closing a data-store immediately prevents new transactions from being
// started. Specifically, it causes Begin() to return ErrDataStoreClosed.
//
// It is generally expected that all transactions have ended by the time the
// data-store is closed.
func (ds *dataStore) Close() error {
	ds.m.Lock()
	defer ds.m.Unlock()

	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	r := ds.release
	ds.release = nil

	return r(string(ds.name))
}

// checkOpen returns an error if the data-store is closed.
func (ds *dataStore) checkOpen() error {
	ds.m.RLock()
	defer ds.m.RUnlock()

	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	return nil
}
