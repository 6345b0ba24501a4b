package persistence

import (
	"context"
	"errors"
)

// ErrDataStoreLocked indicates that a provider has failed to open a data-store
// because it is already open.
var ErrDataStoreLocked = errors.New("data-store is locked")

// Provider is an interface used to open data-stores.
type Provider interface {
	// Open returns the data-store with the given name.
	//
	// Data stores are opened for exclusive use. If another process state has
	// already opened the data-store, ErrDataStoreLocked is returned.
	Open(ctx context.Context, name string) (DataStore, error)
}
