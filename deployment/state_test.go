package deployment_test

import (
	"context"
	"errors"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/dogmatiq/procstore/deployment"
	"github.com/dogmatiq/procstore/fixtures"
	"github.com/dogmatiq/procstore/model"
	"github.com/dogmatiq/procstore/persistence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type State", func() {
	var (
		ctx         context.Context
		dataStore   *fixtures.DataStoreStub
		transformer *fixtures.TransformerStub
		logger      *logging.BufferedLogger
		state       *State
	)

	BeforeEach(func() {
		ctx = context.Background()

		dataStore = fixtures.NewDataStoreStub()
		DeferCleanup(func() { dataStore.Close() })

		transformer = &fixtures.TransformerStub{
			ProcessIDs: []string{"P", "Q"},
		}

		logger = &logging.BufferedLogger{CaptureDebug: true}

		state = NewState(
			transformer,
			WithLogger(logger),
		)
	})

	byKey := func(key uint64, tenantID string) (p *Process, ok bool) {
		inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
			var err error
			p, ok, err = state.ProcessByKey(ctx, tx, key, tenantID)
			Expect(err).ShouldNot(HaveOccurred())
		})
		return p, ok
	}

	byVersion := func(processID string, version uint64, tenantID string) (p *Process, ok bool) {
		inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
			var err error
			p, ok, err = state.ProcessByProcessIDAndVersion(ctx, tx, processID, version, tenantID)
			Expect(err).ShouldNot(HaveOccurred())
		})
		return p, ok
	}

	latest := func(processID, tenantID string) (p *Process, ok bool) {
		inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
			var err error
			p, ok, err = state.LatestProcessByProcessID(ctx, tx, processID, tenantID)
			Expect(err).ShouldNot(HaveOccurred())
		})
		return p, ok
	}

	digest := func(processID, tenantID string) (checksum []byte, ok bool) {
		inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
			var err error
			checksum, ok, err = state.LatestVersionDigest(ctx, tx, processID, tenantID)
			Expect(err).ShouldNot(HaveOccurred())
		})
		return checksum, ok
	}

	nextVersion := func(processID, tenantID string) (v uint64) {
		inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
			var err error
			v, err = state.NextProcessVersion(ctx, tx, processID, tenantID)
			Expect(err).ShouldNot(HaveOccurred())
		})
		return v
	}

	latestVersion := func(processID, tenantID string) (v uint64) {
		inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
			var err error
			v, err = state.LatestProcessVersion(ctx, tx, processID, tenantID)
			Expect(err).ShouldNot(HaveOccurred())
		})
		return v
	}

	Describe("func NewState()", func() {
		It("panics if the cache capacity is negative", func() {
			Expect(func() {
				WithCacheCapacity(-1)
			}).To(PanicWith("capacity must not be negative"))
		})
	})

	It("implements the deploy, redeploy and delete scenario", func() {
		v1 := definition("t1", 1, "P", 1, "A")
		putProcesses(ctx, state, dataStore, v1)

		p, ok := latest("P", "t1")
		Expect(ok).To(BeTrue())
		Expect(p.Resource()).To(Equal([]byte("A")))

		v2 := definition("t1", 2, "P", 2, "B")
		putProcesses(ctx, state, dataStore, v2)

		p, ok = latest("P", "t1")
		Expect(ok).To(BeTrue())
		Expect(p.Resource()).To(Equal([]byte("B")))

		inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
			v, ok, err := state.ProcessVersionBefore(ctx, tx, "P", 2, "t1")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(v).To(BeEquivalentTo(1))
		})

		deleteProcess(ctx, state, dataStore, v2)

		_, ok = byVersion("P", 2, "t1")
		Expect(ok).To(BeFalse())

		_, ok = digest("P", "t1")
		Expect(ok).To(BeFalse())

		Expect(nextVersion("P", "t1")).To(BeEquivalentTo(3))

		p, ok = latest("P", "t1")
		Expect(ok).To(BeTrue())
		Expect(p.Version()).To(BeEquivalentTo(1))
	})

	Describe("func PutProcess()", func() {
		It("makes the process available by key and by ID and version", func() {
			def := definition("<tenant>", 10, "P", 1, "<content>")
			def.DeploymentKey = 5
			putProcesses(ctx, state, dataStore, def)

			p, ok := byKey(10, "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Resource()).To(Equal([]byte("<content>")))
			Expect(p.TenantID()).To(Equal("<tenant>"))
			Expect(p.Key()).To(BeEquivalentTo(10))
			Expect(p.ProcessID()).To(Equal("P"))
			Expect(p.Version()).To(BeEquivalentTo(1))
			Expect(p.ResourceName()).To(Equal("P.bpmn"))
			Expect(p.DeploymentKey()).To(BeEquivalentTo(5))
			Expect(p.Checksum()).To(Equal(Checksum([]byte("<content>"))))
			Expect(p.State()).To(Equal(persistence.ProcessActive))
			Expect(p.Executable().ProcessID()).To(Equal("P"))

			p, ok = byVersion("P", 1, "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Resource()).To(Equal([]byte("<content>")))
		})

		It("uses the key argument rather than the definition's key", func() {
			def := definition("<tenant>", 0, "P", 1, "<content>")

			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				err := state.PutProcess(ctx, tx, 7, def)
				Expect(err).ShouldNot(HaveOccurred())
			})

			p, ok := byKey(7, "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Key()).To(BeEquivalentTo(7))
		})

		It("records the version", func() {
			putProcesses(
				ctx, state, dataStore,
				definition("<tenant>", 1, "P", 1, "A"),
				definition("<tenant>", 2, "P", 2, "B"),
			)

			Expect(latestVersion("P", "<tenant>")).To(BeEquivalentTo(2))
			Expect(nextVersion("P", "<tenant>")).To(BeEquivalentTo(3))
		})

		It("always replaces the digest, even if the version is not the latest", func() {
			putProcesses(
				ctx, state, dataStore,
				definition("<tenant>", 2, "P", 2, "B"),
				definition("<tenant>", 1, "P", 1, "A"),
			)

			checksum, ok := digest("P", "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(checksum).To(Equal(Checksum([]byte("A"))))
		})

		It("upserts a redeployment of the same key in place", func() {
			def := definition("<tenant>", 1, "P", 1, "A")
			putProcesses(ctx, state, dataStore, def)
			putProcesses(ctx, state, dataStore, def)

			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				var keys []uint64
				err := tx.RangeProcessDefinitions(
					ctx,
					"<tenant>",
					func(d persistence.ProcessDefinition) bool {
						keys = append(keys, d.Key)
						return true
					},
				)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(keys).To(Equal([]uint64{1}))

				info, ok, err := tx.LoadVersionInfo(ctx, "<tenant>", "P")
				Expect(err).ShouldNot(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(info.KnownVersions).To(Equal([]uint64{1}))
			})

			Expect(nextVersion("P", "<tenant>")).To(BeEquivalentTo(2))
		})

		It("invalidates the cached process when a key is redeployed", func() {
			putProcesses(ctx, state, dataStore, definition("<tenant>", 1, "P", 1, "A"))

			p, _ := byKey(1, "<tenant>")
			Expect(p.Resource()).To(Equal([]byte("A")))

			putProcesses(ctx, state, dataStore, definition("<tenant>", 1, "P", 1, "A2"))

			p, _ = byKey(1, "<tenant>")
			Expect(p.Resource()).To(Equal([]byte("A2")))

			p, _ = byVersion("P", 1, "<tenant>")
			Expect(p.Resource()).To(Equal([]byte("A2")))
		})

		It("logs the stored process", func() {
			putProcesses(ctx, state, dataStore, definition("<tenant>", 1, "P", 1, "A"))

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "deployment | @<tenant> | stored process 'P' v1 with key 1",
					IsDebug: true,
				},
			))
		})

		It("returns an error if the version is zero", func() {
			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					return state.PutProcess(ctx, tx, 1, definition("<tenant>", 1, "P", 0, "A"))
				},
			)
			Expect(err).To(MatchError("can not store process 'P' with key 1 (tenant '<tenant>'), versions start at 1"))

			_, ok := byKey(1, "<tenant>")
			Expect(ok).To(BeFalse())
			Expect(nextVersion("P", "<tenant>")).To(BeEquivalentTo(1))

			_, ok = digest("P", "<tenant>")
			Expect(ok).To(BeFalse())
		})

		It("returns an error if the definition can not be saved", func() {
			cause := errors.New("<error>")

			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					tx.(*fixtures.TransactionStub).SaveDigestFunc = func(
						context.Context,
						string, string,
						[]byte,
					) error {
						return cause
					}

					return state.PutProcess(ctx, tx, 1, definition("<tenant>", 1, "P", 1, "A"))
				},
			)
			Expect(err).To(Equal(cause))
			Expect(IsFatal(err)).To(BeFalse())

			_, ok := byKey(1, "<tenant>")
			Expect(ok).To(BeFalse())
			Expect(latestVersion("P", "<tenant>")).To(BeZero())
		})
	})

	Describe("func PutDeployment()", func() {
		It("stores each process with the content of its resource", func() {
			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				err := state.PutDeployment(
					ctx,
					tx,
					Record{
						Key:      100,
						TenantID: "<tenant>",
						Resources: []Resource{
							{Name: "p.bpmn", Content: []byte("<p>")},
							{Name: "q.bpmn", Content: []byte("<q>")},
						},
						Processes: []ProcessMetadata{
							{Key: 1, ProcessID: "P", Version: 1, ResourceName: "p.bpmn", Checksum: []byte("<checksum>")},
							{Key: 2, ProcessID: "Q", Version: 3, ResourceName: "q.bpmn"},
							{Key: 3, ProcessID: "R", Version: 1, ResourceName: "r.bpmn"},
						},
					},
				)
				Expect(err).ShouldNot(HaveOccurred())
			})

			p, ok := byKey(1, "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Resource()).To(Equal([]byte("<p>")))
			Expect(p.Checksum()).To(Equal([]byte("<checksum>")))
			Expect(p.DeploymentKey()).To(BeEquivalentTo(100))
			Expect(p.ResourceName()).To(Equal("p.bpmn"))

			p, ok = byVersion("Q", 3, "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Key()).To(BeEquivalentTo(2))
			Expect(p.Resource()).To(Equal([]byte("<q>")))
			Expect(p.Checksum()).To(Equal(Checksum([]byte("<q>"))))

			checksum, ok := digest("Q", "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(checksum).To(Equal(Checksum([]byte("<q>"))))

			_, ok = byKey(3, "<tenant>")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("func DeleteProcess()", func() {
		var v1, v2 persistence.ProcessDefinition

		BeforeEach(func() {
			v1 = definition("<tenant>", 1, "P", 1, "A")
			v2 = definition("<tenant>", 2, "P", 2, "B")
			putProcesses(ctx, state, dataStore, v1, v2)
		})

		It("removes the process even if it was cached", func() {
			_, ok := byKey(2, "<tenant>")
			Expect(ok).To(BeTrue())
			_, ok = byVersion("P", 2, "<tenant>")
			Expect(ok).To(BeTrue())

			deleteProcess(ctx, state, dataStore, v2)

			_, ok = byKey(2, "<tenant>")
			Expect(ok).To(BeFalse())
			_, ok = byVersion("P", 2, "<tenant>")
			Expect(ok).To(BeFalse())
		})

		It("falls back to the previous version as the latest", func() {
			deleteProcess(ctx, state, dataStore, v2)

			p, ok := latest("P", "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Key()).To(BeEquivalentTo(1))
		})

		It("clears the digest when the latest version is deleted, and again for the version that replaces it", func() {
			deleteProcess(ctx, state, dataStore, v2)

			_, ok := digest("P", "<tenant>")
			Expect(ok).To(BeFalse())

			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				err := state.PutLatestVersionDigest(ctx, tx, v1)
				Expect(err).ShouldNot(HaveOccurred())
			})

			deleteProcess(ctx, state, dataStore, v1)

			_, ok = digest("P", "<tenant>")
			Expect(ok).To(BeFalse())
		})

		It("tolerates a missing digest when the latest version is deleted twice in a row", func() {
			deleteProcess(ctx, state, dataStore, v2)
			deleteProcess(ctx, state, dataStore, v1)

			Expect(latestVersion("P", "<tenant>")).To(BeZero())
		})

		It("does not clear the digest when a version that is not the latest is deleted", func() {
			deleteProcess(ctx, state, dataStore, v1)

			checksum, ok := digest("P", "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(checksum).To(Equal(Checksum([]byte("B"))))

			p, ok := latest("P", "<tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Version()).To(BeEquivalentTo(2))
		})

		It("never reuses a deleted version", func() {
			v3 := definition("<tenant>", 3, "P", 3, "C")
			putProcesses(ctx, state, dataStore, v3)

			deleteProcess(ctx, state, dataStore, v2)
			Expect(nextVersion("P", "<tenant>")).To(BeEquivalentTo(4))

			deleteProcess(ctx, state, dataStore, v3)
			deleteProcess(ctx, state, dataStore, v1)
			Expect(nextVersion("P", "<tenant>")).To(BeEquivalentTo(4))
			Expect(latestVersion("P", "<tenant>")).To(BeZero())

			state.ClearCache()
			Expect(nextVersion("P", "<tenant>")).To(BeEquivalentTo(4))
		})

		It("returns a NotFoundError if the process does not exist", func() {
			def := definition("<tenant>", 99, "P", 99, "X")

			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					return state.DeleteProcess(ctx, tx, def)
				},
			)
			Expect(err).To(Equal(persistence.NotFoundError{
				Table:    persistence.RecordsByKeyTable,
				TenantID: "<tenant>",
				Key:      "99",
			}))
			Expect(IsFatal(err)).To(BeFalse())
		})

		It("does not affect other tenants", func() {
			other := definition("<other-tenant>", 2, "P", 2, "B")
			putProcesses(ctx, state, dataStore, other)

			deleteProcess(ctx, state, dataStore, v2)

			p, ok := byKey(2, "<other-tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Resource()).To(Equal([]byte("B")))

			p, ok = latest("P", "<other-tenant>")
			Expect(ok).To(BeTrue())
			Expect(p.Version()).To(BeEquivalentTo(2))

			_, ok = digest("P", "<other-tenant>")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("func UpdateProcessState()", func() {
		BeforeEach(func() {
			putProcesses(ctx, state, dataStore, definition("<tenant>", 1, "P", 1, "A"))
		})

		update := func() {
			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				err := state.UpdateProcessState(ctx, tx, "<tenant>", 1, persistence.ProcessPendingDeletion)
				Expect(err).ShouldNot(HaveOccurred())
			})
		}

		It("updates a cached process without transforming it again", func() {
			byKey(1, "<tenant>")
			Expect(transformer.Calls).To(Equal(1))

			update()

			p, _ := byKey(1, "<tenant>")
			Expect(p.State()).To(Equal(persistence.ProcessPendingDeletion))

			p, _ = byVersion("P", 1, "<tenant>")
			Expect(p.State()).To(Equal(persistence.ProcessPendingDeletion))

			Expect(transformer.Calls).To(Equal(1))
		})

		It("caches a process that was not cached", func() {
			update()
			Expect(transformer.Calls).To(Equal(1))

			p, _ := byVersion("P", 1, "<tenant>")
			Expect(p.State()).To(Equal(persistence.ProcessPendingDeletion))
			Expect(transformer.Calls).To(Equal(1))
		})

		It("persists the state", func() {
			update()
			state.ClearCache()

			p, _ := byKey(1, "<tenant>")
			Expect(p.State()).To(Equal(persistence.ProcessPendingDeletion))
		})

		It("returns a NotFoundError if the process does not exist", func() {
			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					return state.UpdateProcessState(ctx, tx, "<tenant>", 2, persistence.ProcessPendingDeletion)
				},
			)
			Expect(err).To(BeAssignableToTypeOf(persistence.NotFoundError{}))
		})
	})

	Describe("func LatestProcessByProcessID()", func() {
		It("returns false if the process has never been deployed", func() {
			_, ok := latest("P", "<tenant>")
			Expect(ok).To(BeFalse())
		})

		It("returns false if the version ledger refers to a missing record", func() {
			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				err := tx.SaveVersionInfo(ctx, persistence.VersionInfo{
					TenantID:       "<tenant>",
					ProcessID:      "P",
					HighestVersion: 1,
					KnownVersions:  []uint64{1},
				})
				Expect(err).ShouldNot(HaveOccurred())
			})

			_, ok := latest("P", "<tenant>")
			Expect(ok).To(BeFalse())
		})

		It("returns the cached process on subsequent calls", func() {
			putProcesses(ctx, state, dataStore, definition("<tenant>", 1, "P", 1, "A"))

			p1, _ := latest("P", "<tenant>")
			p2, _ := latest("P", "<tenant>")

			Expect(p2).To(BeIdenticalTo(p1))
			Expect(transformer.Calls).To(Equal(1))
		})

		It("isolates tenants", func() {
			putProcesses(
				ctx, state, dataStore,
				definition("<tenant-a>", 1, "P", 1, "A"),
				definition("<tenant-b>", 1, "P", 1, "B"),
			)

			p, _ := latest("P", "<tenant-a>")
			Expect(p.Resource()).To(Equal([]byte("A")))

			p, _ = latest("P", "<tenant-b>")
			Expect(p.Resource()).To(Equal([]byte("B")))
		})
	})

	Describe("func ProcessByKey()", func() {
		BeforeEach(func() {
			putProcesses(
				ctx, state, dataStore,
				definition("<tenant>", 1, "P", 1, "A"),
				definition("<tenant>", 2, "Q", 1, "B"),
			)
		})

		It("returns false if there is no such process", func() {
			_, ok := byKey(3, "<tenant>")
			Expect(ok).To(BeFalse())

			_, ok = byKey(1, "<other-tenant>")
			Expect(ok).To(BeFalse())
		})

		It("populates both caches with a single transformation", func() {
			a, _ := byKey(1, "<tenant>")
			b, _ := byVersion("P", 1, "<tenant>")

			Expect(b).To(BeIdenticalTo(a))
			Expect(transformer.Calls).To(Equal(1))
		})

		It("evicts the least recently used process when the cache is full", func() {
			state = NewState(transformer, WithCacheCapacity(1), WithLogger(logger))

			byKey(1, "<tenant>")
			byKey(1, "<tenant>")
			Expect(transformer.Calls).To(Equal(1))

			byKey(2, "<tenant>")
			byKey(1, "<tenant>")
			Expect(transformer.Calls).To(Equal(3))

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "deployment | @<tenant> | process with key 1 evicted from cache",
					IsDebug: true,
				},
			))
		})

		It("does not expose the cached buffers", func() {
			p, _ := byKey(1, "<tenant>")

			p.Resource()[0] = 'X'
			def := p.Definition()
			def.Resource[0] = 'Y'
			def.Checksum[0] = 0

			p, _ = byKey(1, "<tenant>")
			Expect(p.Resource()).To(Equal([]byte("A")))
			Expect(p.Checksum()).To(Equal(Checksum([]byte("A"))))
		})

		It("gives the transformer a copy of the persisted resource", func() {
			var resource []byte
			transformer.TransformFunc = func(r []byte) ([]model.ExecutableProcess, error) {
				resource = r
				return []model.ExecutableProcess{
					&fixtures.ExecutableProcessStub{ID: "P"},
				}, nil
			}

			var def persistence.ProcessDefinition
			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				tx.(*fixtures.TransactionStub).LoadProcessDefinitionByKeyFunc = func(
					context.Context,
					string,
					uint64,
				) (persistence.ProcessDefinition, bool, error) {
					def = definition("<tenant>", 1, "P", 1, "A")
					return def, true, nil
				}

				_, _, err := state.ProcessByKey(ctx, tx, 1, "<tenant>")
				Expect(err).ShouldNot(HaveOccurred())
			})

			Expect(resource).To(Equal([]byte("A")))
			Expect(&resource[0]).NotTo(BeIdenticalTo(&def.Resource[0]))

			def.Resource[0] = 'X'

			p, _ := byKey(1, "<tenant>")
			Expect(p.Resource()).To(Equal([]byte("A")))
		})

		It("returns a fatal error if the resource does not define the process", func() {
			transformer.ProcessIDs = []string{"Q"}

			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					_, _, err := state.ProcessByKey(ctx, tx, 1, "<tenant>")
					return err
				},
			)
			Expect(err).To(Equal(&NoExecutableDefinitionFoundError{
				TenantID:  "<tenant>",
				Key:       1,
				ProcessID: "P",
			}))
			Expect(IsFatal(err)).To(BeTrue())
		})

		It("returns a fatal error if the resource can not be transformed", func() {
			cause := errors.New("<error>")
			transformer.TransformFunc = func([]byte) ([]model.ExecutableProcess, error) {
				return nil, cause
			}

			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					_, _, err := state.ProcessByKey(ctx, tx, 1, "<tenant>")
					return err
				},
			)
			Expect(err).To(MatchError(cause))
			Expect(IsFatal(err)).To(BeTrue())
		})

		It("propagates storage errors unchanged", func() {
			cause := errors.New("<error>")

			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					tx.(*fixtures.TransactionStub).LoadProcessDefinitionByKeyFunc = func(
						context.Context,
						string,
						uint64,
					) (persistence.ProcessDefinition, bool, error) {
						return persistence.ProcessDefinition{}, false, cause
					}

					_, _, err := state.ProcessByKey(ctx, tx, 3, "<tenant>")
					return err
				},
			)
			Expect(err).To(Equal(cause))
			Expect(IsFatal(err)).To(BeFalse())
		})
	})

	Describe("func ProcessVersionBefore()", func() {
		It("returns false if there is no earlier version", func() {
			putProcesses(ctx, state, dataStore, definition("<tenant>", 1, "P", 1, "A"))

			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				_, ok, err := state.ProcessVersionBefore(ctx, tx, "P", 1, "<tenant>")
				Expect(err).ShouldNot(HaveOccurred())
				Expect(ok).To(BeFalse())
			})
		})

		It("skips deleted versions", func() {
			v2 := definition("<tenant>", 2, "P", 2, "B")
			putProcesses(
				ctx, state, dataStore,
				definition("<tenant>", 1, "P", 1, "A"),
				v2,
				definition("<tenant>", 3, "P", 3, "C"),
			)
			deleteProcess(ctx, state, dataStore, v2)

			inTx(ctx, state, dataStore, func(tx persistence.ManagedTransaction) {
				v, ok, err := state.ProcessVersionBefore(ctx, tx, "P", 3, "<tenant>")
				Expect(err).ShouldNot(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(v).To(BeEquivalentTo(1))
			})
		})
	})

	Describe("func ClearCache()", func() {
		It("causes processes to be rebuilt from the data store", func() {
			putProcesses(ctx, state, dataStore, definition("<tenant>", 1, "P", 1, "A"))

			byKey(1, "<tenant>")
			state.ClearCache()
			p, ok := byKey(1, "<tenant>")

			Expect(ok).To(BeTrue())
			Expect(p.Resource()).To(Equal([]byte("A")))
			Expect(transformer.Calls).To(Equal(2))
		})

		It("reloads the version ledger from the data store", func() {
			putProcesses(ctx, state, dataStore, definition("<tenant>", 1, "P", 1, "A"))
			state.ClearCache()

			Expect(latestVersion("P", "<tenant>")).To(BeEquivalentTo(1))
		})
	})

	Describe("func Transaction()", func() {
		It("discards in-memory changes when the transaction is rolled-back", func() {
			cause := errors.New("<error>")

			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					err := state.PutProcess(ctx, tx, 1, definition("<tenant>", 1, "P", 1, "A"))
					Expect(err).ShouldNot(HaveOccurred())

					_, ok, err := state.ProcessByKey(ctx, tx, 1, "<tenant>")
					Expect(err).ShouldNot(HaveOccurred())
					Expect(ok).To(BeTrue())

					return cause
				},
			)
			Expect(err).To(Equal(cause))

			Expect(latestVersion("P", "<tenant>")).To(BeZero())
			Expect(nextVersion("P", "<tenant>")).To(BeEquivalentTo(1))

			_, ok := byKey(1, "<tenant>")
			Expect(ok).To(BeFalse())
		})

		It("discards in-memory changes when the commit fails", func() {
			cause := errors.New("<error>")

			dataStore.BeginFunc = func(ctx context.Context) (persistence.Transaction, error) {
				tx, err := dataStore.DataStore.Begin(ctx)
				if err != nil {
					return nil, err
				}

				return &fixtures.TransactionStub{
					Transaction: tx,
					CommitFunc: func(context.Context) error {
						tx.Rollback()
						return cause
					},
				}, nil
			}

			err := state.Transaction(
				ctx,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					return state.PutProcess(ctx, tx, 1, definition("<tenant>", 1, "P", 1, "A"))
				},
			)
			Expect(err).To(Equal(cause))

			dataStore.BeginFunc = nil

			Expect(latestVersion("P", "<tenant>")).To(BeZero())
		})
	})
})
