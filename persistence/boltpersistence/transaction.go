package boltpersistence

import (
	"context"

	"github.com/dogmatiq/procstore/internal/x/bboltx"
	"github.com/dogmatiq/procstore/persistence"
	"go.etcd.io/bbolt"
)

// transaction is an implementation of persistence.Transaction for BoltDB
// data stores.
type transaction struct {
	ds     *dataStore
	actual *bbolt.Tx
	root   *bbolt.Bucket
}

// Commit applies the changes from the transaction.
func (t *transaction) Commit(ctx context.Context) error {
	defer t.end()

	if t.ds == nil {
		return persistence.ErrTransactionClosed
	}

	if err := t.ds.checkOpen(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if t.actual != nil {
		return t.actual.Commit()
	}

	return nil
}

// Rollback aborts the transaction.
func (t *transaction) Rollback() error {
	if t.ds == nil {
		return persistence.ErrTransactionClosed
	}

	t.end()

	return nil
}

// begin acquires a write-lock on the database and begins an actual BoltDB
// transaction, if it has not already been started.
//
// It panics with a bboltx.PanicSentinel if the transaction can not be used.
func (t *transaction) begin(ctx context.Context) {
	if t.ds == nil {
		bboltx.Must(persistence.ErrTransactionClosed)
	}

	bboltx.Must(t.ds.checkOpen())
	bboltx.Must(ctx.Err())

	if t.actual == nil {
		t.actual = t.ds.db.Begin(ctx)
		t.root = bboltx.CreateBucketIfNotExists(t.actual, t.ds.name)
	}
}

// bucket returns the table bucket with the given name, creating it if
// necessary.
func (t *transaction) bucket(ctx context.Context, name []byte) *bbolt.Bucket {
	t.begin(ctx)
	return bboltx.CreateBucketIfNotExists(t.root, name)
}

// end rolls-back the actual transaction, releases the database lock, and marks
// the transaction as ended.
//
// Rolling back after a successful commit is a no-op.
func (t *transaction) end() {
	if t.actual != nil {
		t.actual.Rollback() // nolint:errcheck
		t.ds.db.End()
		t.actual = nil
		t.root = nil
	}

	t.ds = nil
}
