package persistence

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"
)

// ErrDataStoreClosed is returned when performing any persistence operation on a
// closed data-store.
var ErrDataStoreClosed = errors.New("data store is closed")

// DataStore is an interface used by the process state to persist and retrieve
// process definitions.
type DataStore interface {
	// Begin starts a new transaction.
	//
	// Only one transaction may make progress at a time. Depending on the
	// implementation, either Begin or the first operation within the
	// transaction blocks until any other transaction has ended, or ctx is
	// canceled.
	Begin(ctx context.Context) (Transaction, error)

	// Close closes the data store.
	//
	// Closing a data-store prevents any writes to the data-store. Specifically,
	// DataStore.Begin() and Transaction.Commit() will return ErrDataStoreClosed
	// if the transaction's underlying data-store has been closed.
	Close() error
}

// DataStoreSet is a collection of data-stores, keyed by name.
type DataStoreSet struct {
	Provider Provider

	m      sync.Mutex
	stores map[string]DataStore
}

// Get returns the data store with the given name.
//
// If the set already contains the data-store it is returned. Otherwise it is
// opened and added to the set. The caller is NOT reponsible for closing the
// data store.
func (s *DataStoreSet) Get(ctx context.Context, name string) (DataStore, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if ds, ok := s.stores[name]; ok {
		return ds, nil
	}

	ds, err := s.Provider.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	if s.stores == nil {
		s.stores = map[string]DataStore{}
	}

	s.stores[name] = ds

	return ds, nil
}

// Close closes all datastores in the set.
func (s *DataStoreSet) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	stores := s.stores
	s.stores = nil

	var err error
	for _, ds := range stores {
		err = multierr.Append(
			err,
			ds.Close(),
		)
	}

	return err
}
