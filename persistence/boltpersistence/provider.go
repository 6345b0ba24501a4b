package boltpersistence

import (
	"context"
	"os"
	"sync"

	"github.com/dogmatiq/procstore/internal/x/bboltx"
	"github.com/dogmatiq/procstore/persistence"
	"go.etcd.io/bbolt"
)

// Provider is an implementation of persistence.Provider for BoltDB that uses an
// existing open database.
type Provider struct {
	provider

	// DB is the BoltDB database to use.
	DB *bbolt.DB
}

// Open returns the data-store with the given name.
//
// Data stores are opened for exclusive use. If the data-store is already open,
// ErrDataStoreLocked is returned.
func (p *Provider) Open(ctx context.Context, name string) (persistence.DataStore, error) {
	return p.open(
		ctx,
		name,
		func() (*bbolt.DB, error) {
			return p.DB, nil
		},
		func(*bbolt.DB) error {
			// Don't actually close the database, since we didn't open it.
			return nil
		},
	)
}

// FileProvider is an implementation of persistence.Provider for BoltDB that
// opens a BoltDB database file.
type FileProvider struct {
	provider

	// Path is the path to the BoltDB database to open or create.
	Path string

	// Mode is the file mode for the created file.
	// If it is zero, 0600 (owner read/write only) is used.
	Mode os.FileMode

	// Options is the BoltDB options for the database.
	// If it is nil, bbolt.DefaultOptions is used.
	Options *bbolt.Options
}

// Open returns the data-store with the given name.
//
// Data stores are opened for exclusive use. If the data-store is already open,
// ErrDataStoreLocked is returned.
func (p *FileProvider) Open(ctx context.Context, name string) (persistence.DataStore, error) {
	return p.open(
		ctx,
		name,
		func() (*bbolt.DB, error) {
			return bboltx.Open(ctx, p.Path, p.Mode, p.Options)
		},
		func(db *bbolt.DB) error {
			return db.Close()
		},
	)
}

// provider is the common implementation of Provider and FileProvider.
type provider struct {
	m      sync.Mutex
	db     *database
	stores map[string]struct{}
}

// open returns a data-store for a specific application.
func (p *provider) open(
	_ context.Context,
	name string,
	open func() (*bbolt.DB, error),
	close func(db *bbolt.DB) error,
) (persistence.DataStore, error) {
	p.m.Lock()
	defer p.m.Unlock()

	if p.db == nil {
		db, err := open()
		if err != nil {
			return nil, err
		}

		p.db = &database{
			actual: db,
			close:  close,
		}
	}

	if p.stores == nil {
		p.stores = map[string]struct{}{}
	} else if _, ok := p.stores[name]; ok {
		return nil, persistence.ErrDataStoreLocked
	}

	p.stores[name] = struct{}{}

	return &dataStore{
		db:      p.db,
		name:    []byte(name),
		release: p.release,
	}, nil
}

// release marks a previously-opened data-store as closed, releasing the lock on
// that data-store.
//
// The database is closed when the last data-store is released.
func (p *provider) release(name string) error {
	p.m.Lock()
	defer p.m.Unlock()

	delete(p.stores, name)

	if len(p.stores) > 0 {
		return nil
	}

	db := p.db
	p.db = nil

	return db.Close()
}
