package sqlpersistence

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dogmatiq/linger"
	"github.com/dogmatiq/procstore/internal/x/syncx"
	"github.com/dogmatiq/procstore/persistence"
	"go.uber.org/multierr"
)

// dataStore is an implementation of persistence.DataStore for SQL databases.
type dataStore struct {
	db     *sql.DB
	driver Driver
	name   string
	lock   *storeLock

	// tx is held for the duration of each transaction.
	tx syncx.Mutex

	closeM     sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	closeCause error
	release    func() error
}

// newDataStore returns a new data-store.
func newDataStore(
	db *sql.DB,
	d Driver,
	name string,
	lock *storeLock,
	r func() error,
) *dataStore {
	ctx, cancel := context.WithCancel(context.Background())

	ds := &dataStore{
		db:      db,
		driver:  d,
		name:    name,
		lock:    lock,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		release: r,
	}

	go ds.maintainLock()

	return ds
}

// Begin starts a new transaction.
//
// It blocks until any other transaction on this data-store has ended. The
// underlying SQL transaction is rolled back if the data-store is closed
// before the transaction is committed.
func (ds *dataStore) Begin(ctx context.Context) (persistence.Transaction, error) {
	if err := ds.checkOpen(); err != nil {
		return nil, err
	}

	if err := ds.tx.Lock(ctx); err != nil {
		return nil, err
	}

	// Check again, in case the store was closed while we were waiting for
	// the lock.
	if err := ds.checkOpen(); err != nil {
		ds.tx.Unlock()
		return nil, err
	}

	tx, err := ds.driver.Begin(ds.ctx, ds.db)
	if err != nil {
		ds.tx.Unlock()
		return nil, err
	}

	return &transaction{
		ds:     ds,
		actual: tx,
	}, nil
}

// Close closes the data store.
//
// Closing a data-store causes any future calls to Begin() and
// Transaction.Commit() to return ErrDataStoreClosed.
func (ds *dataStore) Close() error {
	ds.closeM.Lock()
	defer ds.closeM.Unlock()

	if ds.release == nil {
		return persistence.ErrDataStoreClosed
	}

	r := ds.release
	ds.release = nil

	ds.cancel()
	<-ds.done

	// Release the lock *before* r() is called, as it may close the DB.
	err := ds.lock.release()

	return multierr.Append(err, r())
}

// checkOpen returns an error if the data-store is closed.
func (ds *dataStore) checkOpen() error {
	select {
	case <-ds.done:
		return ds.closeCause
	default:
		return nil
	}
}

// maintainLock periodically renews the data-store's lock on its data. If the
// lock can not be renewed the data-store is closed.
func (ds *dataStore) maintainLock() {
	defer close(ds.done)
	defer ds.cancel()

	for {
		if err := linger.Sleep(ds.ctx, ds.lock.renewInterval()); err != nil {
			ds.closeCause = persistence.ErrDataStoreClosed
			return
		}

		err := ds.lock.renew(ds.ctx)

		if ds.ctx.Err() != nil {
			ds.closeCause = persistence.ErrDataStoreClosed
			return
		}

		if err != nil {
			ds.closeCause = err
			return
		}
	}
}
