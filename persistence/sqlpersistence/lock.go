package sqlpersistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dogmatiq/procstore/persistence"
)

// LockDriver is the subset of the Driver interface that is concerned with
// giving a single process store exclusive use of a named data-store.
type LockDriver interface {
	// AcquireLock claims the data-store with the given name for ttl.
	//
	// It returns an ID that identifies the claim, or false if another
	// process already holds an unexpired claim on the same data-store.
	AcquireLock(
		ctx context.Context,
		db *sql.DB,
		store string,
		ttl time.Duration,
	) (int64, bool, error)

	// RenewLock extends the claim with the given ID by ttl from now.
	//
	// It returns false if the claim has already expired.
	RenewLock(
		ctx context.Context,
		db *sql.DB,
		id int64,
		ttl time.Duration,
	) (bool, error)

	// ReleaseLock gives up the claim with the given ID.
	ReleaseLock(
		ctx context.Context,
		db *sql.DB,
		id int64,
	) error
}

// storeLock is a claim on a named data-store held by one dataStore.
type storeLock struct {
	driver LockDriver
	db     *sql.DB
	store  string
	id     int64
	ttl    time.Duration
}

// acquireStoreLock claims the data-store with the given name.
//
// It returns persistence.ErrDataStoreLocked if the data-store is already
// claimed.
func acquireStoreLock(
	ctx context.Context,
	d LockDriver,
	db *sql.DB,
	store string,
	ttl time.Duration,
) (*storeLock, error) {
	id, ok, err := d.AcquireLock(ctx, db, store, ttl)
	if err != nil {
		return nil, fmt.Errorf("unable to lock the '%s' data-store: %w", store, err)
	}

	if !ok {
		return nil, persistence.ErrDataStoreLocked
	}

	return &storeLock{d, db, store, id, ttl}, nil
}

// renewInterval is the time to wait between renewals.
func (l *storeLock) renewInterval() time.Duration {
	return l.ttl / 2
}

// renew extends the claim.
func (l *storeLock) renew(ctx context.Context) error {
	ok, err := l.driver.RenewLock(ctx, l.db, l.id, l.ttl)
	if err != nil {
		return fmt.Errorf("unable to renew data-store lock: %w", err)
	}

	if !ok {
		return errors.New("unable to renew expired data-store lock")
	}

	return nil
}

// release gives up the claim, allowing up to the TTL to do so. Any longer
// and the claim expires anyway.
func (l *storeLock) release() error {
	ctx, cancel := context.WithTimeout(context.Background(), l.ttl)
	defer cancel()

	return l.driver.ReleaseLock(ctx, l.db, l.id)
}
