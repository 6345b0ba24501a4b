package providertest

import (
	"context"

	"github.com/dogmatiq/procstore/persistence"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
)

// equalRecord returns a matcher that compares stored records field by field,
// treating nil and empty byte slices as equal. SQL drivers return empty
// columns as either.
func equalRecord(expected any) types.GomegaMatcher {
	return gomega.BeComparableTo(expected, cmpopts.EquateEmpty())
}

// inTx executes fn within a transaction and asserts that it commits
// successfully.
func inTx(
	ctx context.Context,
	ds persistence.DataStore,
	fn func(tx persistence.ManagedTransaction),
) {
	err := persistence.WithTransaction(
		ctx,
		ds,
		func(tx persistence.ManagedTransaction) error {
			fn(tx)
			return nil
		},
	)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
}

// saveDefinitions saves process definitions in a single transaction.
func saveDefinitions(
	ctx context.Context,
	ds persistence.DataStore,
	defs ...persistence.ProcessDefinition,
) {
	inTx(ctx, ds, func(tx persistence.ManagedTransaction) {
		for _, def := range defs {
			err := tx.SaveProcessDefinition(ctx, def)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
		}
	})
}

// loadByKey loads a process definition by key in a new transaction.
func loadByKey(
	ctx context.Context,
	ds persistence.DataStore,
	tenantID string,
	key uint64,
) (def persistence.ProcessDefinition, ok bool) {
	inTx(ctx, ds, func(tx persistence.ManagedTransaction) {
		var err error
		def, ok, err = tx.LoadProcessDefinitionByKey(ctx, tenantID, key)
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	})

	return def, ok
}

// loadByVersion loads a process definition by process ID and version in a new
// transaction.
func loadByVersion(
	ctx context.Context,
	ds persistence.DataStore,
	tenantID, processID string,
	version uint64,
) (def persistence.ProcessDefinition, ok bool) {
	inTx(ctx, ds, func(tx persistence.ManagedTransaction) {
		var err error
		def, ok, err = tx.LoadProcessDefinitionByVersion(ctx, tenantID, processID, version)
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	})

	return def, ok
}

// loadVersionInfo loads the version info for a process in a new transaction.
func loadVersionInfo(
	ctx context.Context,
	ds persistence.DataStore,
	tenantID, processID string,
) (info persistence.VersionInfo, ok bool) {
	inTx(ctx, ds, func(tx persistence.ManagedTransaction) {
		var err error
		info, ok, err = tx.LoadVersionInfo(ctx, tenantID, processID)
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	})

	return info, ok
}

// loadDigest loads the digest for a process in a new transaction.
func loadDigest(
	ctx context.Context,
	ds persistence.DataStore,
	tenantID, processID string,
) (checksum []byte, ok bool) {
	inTx(ctx, ds, func(tx persistence.ManagedTransaction) {
		var err error
		checksum, ok, err = tx.LoadDigest(ctx, tenantID, processID)
		gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	})

	return checksum, ok
}

// definition returns a process definition for use in tests.
func definition(
	tenantID string,
	key uint64,
	processID string,
	version uint64,
) persistence.ProcessDefinition {
	return persistence.ProcessDefinition{
		TenantID:      tenantID,
		Key:           key,
		ProcessID:     processID,
		Version:       version,
		ResourceName:  processID + ".bpmn",
		Checksum:      []byte("<checksum>"),
		Resource:      []byte("<resource>"),
		DeploymentKey: key + 1000,
	}
}
