package memorypersistence

import (
	"context"

	"github.com/dogmatiq/procstore/persistence"
)

// transaction is an implementation of persistence.Transaction for the
// in-memory persistence provider.
//
// It operates on a private copy of the database tables, which replaces the
// committed tables when the transaction is committed.
type transaction struct {
	ds     *dataStore
	tables tables
	done   bool
}

// Commit applies the changes from the transaction.
func (t *transaction) Commit(ctx context.Context) error {
	if t.done {
		return persistence.ErrTransactionClosed
	}

	t.done = true
	defer t.ds.db.tx.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if t.ds.isClosed() {
		return persistence.ErrDataStoreClosed
	}

	t.ds.db.replace(t.tables)

	return nil
}

// Rollback aborts the transaction.
func (t *transaction) Rollback() error {
	if t.done {
		return persistence.ErrTransactionClosed
	}

	t.done = true
	t.ds.db.tx.Unlock()

	return nil
}

// begin returns an error if the transaction can not be used.
func (t *transaction) begin(ctx context.Context) error {
	if t.done {
		return persistence.ErrTransactionClosed
	}

	return ctx.Err()
}
