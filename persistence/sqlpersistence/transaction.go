package sqlpersistence

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/procstore/persistence"
)

// transaction is an implementation of persistence.Transaction for SQL
// data-stores.
type transaction struct {
	ds     *dataStore
	actual *sql.Tx
}

// Commit applies the changes from the transaction.
func (t *transaction) Commit(ctx context.Context) error {
	if t.ds == nil {
		return persistence.ErrTransactionClosed
	}

	defer t.end()

	if err := t.ds.checkOpen(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return t.actual.Commit()
}

// Rollback aborts the transaction.
func (t *transaction) Rollback() error {
	if t.ds == nil {
		return persistence.ErrTransactionClosed
	}

	t.end()

	return nil
}

// begin returns an error if the transaction can not be used.
func (t *transaction) begin(ctx context.Context) error {
	if t.ds == nil {
		return persistence.ErrTransactionClosed
	}

	if err := t.ds.checkOpen(); err != nil {
		return err
	}

	return ctx.Err()
}

// end rolls-back the actual transaction, releases the data-store's
// transaction lock, and marks the transaction as ended.
//
// Rolling back after a successful commit is a no-op.
func (t *transaction) end() {
	t.actual.Rollback() // nolint:errcheck
	t.ds.tx.Unlock()

	t.actual = nil
	t.ds = nil
}
