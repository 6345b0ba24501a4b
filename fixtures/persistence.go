package fixtures

import (
	"context"

	"github.com/dogmatiq/procstore/persistence"
	"github.com/dogmatiq/procstore/persistence/memorypersistence"
)

// DefaultStoreName is the data-store name used by NewDataStoreStub().
const DefaultStoreName = "<store>"

// ProviderStub is a test implementation of the persistence.Provider interface.
type ProviderStub struct {
	persistence.Provider

	OpenFunc func(context.Context, string) (persistence.DataStore, error)
}

// Open returns the data-store with the given name.
func (p *ProviderStub) Open(ctx context.Context, name string) (persistence.DataStore, error) {
	if p.OpenFunc != nil {
		return p.OpenFunc(ctx, name)
	}

	if p.Provider != nil {
		ds, err := p.Provider.Open(ctx, name)
		if ds != nil {
			ds = &DataStoreStub{DataStore: ds}
		}
		return ds, err
	}

	return nil, nil
}

// DataStoreStub is a test implementation of the persistence.DataStore interface.
type DataStoreStub struct {
	persistence.DataStore

	BeginFunc func(context.Context) (persistence.Transaction, error)
	CloseFunc func() error
}

// NewDataStoreStub returns a new data-store stub that uses an in-memory
// persistence provider.
func NewDataStoreStub() *DataStoreStub {
	p := &ProviderStub{
		Provider: &memorypersistence.Provider{},
	}

	ds, err := p.Open(context.Background(), DefaultStoreName)
	if err != nil {
		panic(err)
	}

	return ds.(*DataStoreStub)
}

// Begin starts a new transaction.
func (ds *DataStoreStub) Begin(ctx context.Context) (persistence.Transaction, error) {
	if ds.BeginFunc != nil {
		return ds.BeginFunc(ctx)
	}

	if ds.DataStore != nil {
		tx, err := ds.DataStore.Begin(ctx)
		if tx != nil {
			tx = &TransactionStub{Transaction: tx}
		}
		return tx, err
	}

	return nil, nil
}

// Close closes the data store.
func (ds *DataStoreStub) Close() error {
	if ds.CloseFunc != nil {
		return ds.CloseFunc()
	}

	if ds.DataStore != nil {
		return ds.DataStore.Close()
	}

	return nil
}

// TransactionStub is a test implementation of the persistence.Transaction
// interface.
type TransactionStub struct {
	persistence.Transaction

	SaveProcessDefinitionFunc      func(context.Context, persistence.ProcessDefinition) error
	LoadProcessDefinitionByKeyFunc func(context.Context, string, uint64) (persistence.ProcessDefinition, bool, error)
	RemoveProcessDefinitionFunc    func(context.Context, persistence.ProcessDefinition) error
	LoadVersionInfoFunc            func(context.Context, string, string) (persistence.VersionInfo, bool, error)
	SaveVersionInfoFunc            func(context.Context, persistence.VersionInfo) error
	SaveDigestFunc                 func(context.Context, string, string, []byte) error
	CommitFunc                     func(context.Context) error
	RollbackFunc                   func() error
}

// SaveProcessDefinition creates or replaces a process definition.
func (t *TransactionStub) SaveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) error {
	if t.SaveProcessDefinitionFunc != nil {
		return t.SaveProcessDefinitionFunc(ctx, def)
	}

	if t.Transaction != nil {
		return t.Transaction.SaveProcessDefinition(ctx, def)
	}

	return nil
}

// LoadProcessDefinitionByKey loads the process definition with the given key.
func (t *TransactionStub) LoadProcessDefinitionByKey(
	ctx context.Context,
	tenantID string,
	key uint64,
) (persistence.ProcessDefinition, bool, error) {
	if t.LoadProcessDefinitionByKeyFunc != nil {
		return t.LoadProcessDefinitionByKeyFunc(ctx, tenantID, key)
	}

	if t.Transaction != nil {
		return t.Transaction.LoadProcessDefinitionByKey(ctx, tenantID, key)
	}

	return persistence.ProcessDefinition{}, false, nil
}

// RemoveProcessDefinition removes a process definition from both indexes.
func (t *TransactionStub) RemoveProcessDefinition(
	ctx context.Context,
	def persistence.ProcessDefinition,
) error {
	if t.RemoveProcessDefinitionFunc != nil {
		return t.RemoveProcessDefinitionFunc(ctx, def)
	}

	if t.Transaction != nil {
		return t.Transaction.RemoveProcessDefinition(ctx, def)
	}

	return nil
}

// LoadVersionInfo loads the version ledger entry for a process.
func (t *TransactionStub) LoadVersionInfo(
	ctx context.Context,
	tenantID, processID string,
) (persistence.VersionInfo, bool, error) {
	if t.LoadVersionInfoFunc != nil {
		return t.LoadVersionInfoFunc(ctx, tenantID, processID)
	}

	if t.Transaction != nil {
		return t.Transaction.LoadVersionInfo(ctx, tenantID, processID)
	}

	return persistence.VersionInfo{}, false, nil
}

// SaveVersionInfo creates or replaces a version ledger entry.
func (t *TransactionStub) SaveVersionInfo(
	ctx context.Context,
	info persistence.VersionInfo,
) error {
	if t.SaveVersionInfoFunc != nil {
		return t.SaveVersionInfoFunc(ctx, info)
	}

	if t.Transaction != nil {
		return t.Transaction.SaveVersionInfo(ctx, info)
	}

	return nil
}

// SaveDigest creates or replaces the digest for a process.
func (t *TransactionStub) SaveDigest(
	ctx context.Context,
	tenantID, processID string,
	checksum []byte,
) error {
	if t.SaveDigestFunc != nil {
		return t.SaveDigestFunc(ctx, tenantID, processID, checksum)
	}

	if t.Transaction != nil {
		return t.Transaction.SaveDigest(ctx, tenantID, processID, checksum)
	}

	return nil
}

// Commit applies the changes from the transaction.
func (t *TransactionStub) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}

	if t.Transaction != nil {
		return t.Transaction.Commit(ctx)
	}

	return nil
}

// Rollback aborts the transaction.
func (t *TransactionStub) Rollback() error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc()
	}

	if t.Transaction != nil {
		return t.Transaction.Rollback()
	}

	return nil
}
