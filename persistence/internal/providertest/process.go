package providertest

import (
	"github.com/dogmatiq/procstore/persistence"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func declareProcessDefinitionTests(tc *TestContext) {
	ginkgo.Describe("type ProcessDefinitionTable (interface)", func() {
		var (
			dataStore        persistence.DataStore
			def1, def2, def3 persistence.ProcessDefinition
		)

		ginkgo.BeforeEach(func() {
			_, dataStore = tc.SetupDataStore()

			def1 = definition("<tenant>", 1, "<process-a>", 1)
			def2 = definition("<tenant>", 2, "<process-a>", 2)
			def3 = definition("<tenant>", 3, "<process-b>", 1)
		})

		ginkgo.Describe("func SaveProcessDefinition()", func() {
			ginkgo.It("saves the definition under both indexes", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				loaded, ok := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(def1))

				loaded, ok = loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 1)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(def1))
			})

			ginkgo.It("replaces an existing definition with the same key", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				def1.Resource = []byte("<updated>")
				def1.State = persistence.ProcessPendingDeletion
				saveDefinitions(tc.Context, dataStore, def1)

				loaded, ok := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(def1))
			})

			ginkgo.It("moves the definition to its new version when the version changes", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				moved := def1
				moved.Version = 3
				saveDefinitions(tc.Context, dataStore, moved)

				_, ok := loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 1)
				gomega.Expect(ok).To(gomega.BeFalse())

				loaded, ok := loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 3)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(moved))

				loaded, ok = loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(moved))
			})

			ginkgo.It("returns a DuplicateVersionError if the version belongs to a definition with another key", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				duplicate := definition("<tenant>", 2, "<process-a>", 1)

				err := persistence.WithTransaction(
					tc.Context,
					dataStore,
					func(tx persistence.ManagedTransaction) error {
						return tx.SaveProcessDefinition(tc.Context, duplicate)
					},
				)
				gomega.Expect(err).To(gomega.Equal(
					persistence.DuplicateVersionError{
						TenantID:    "<tenant>",
						ProcessID:   "<process-a>",
						Version:     1,
						Key:         2,
						ExistingKey: 1,
					},
				))

				loaded, ok := loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 1)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(def1))

				_, ok = loadByKey(tc.Context, dataStore, "<tenant>", 2)
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("preserves empty values", func() {
				def := persistence.ProcessDefinition{
					TenantID:  "<tenant>",
					Key:       10,
					ProcessID: "<process>",
					Version:   1,
				}
				saveDefinitions(tc.Context, dataStore, def)

				loaded, ok := loadByKey(tc.Context, dataStore, "<tenant>", 10)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(def))
			})

			ginkgo.It("does not retain the caller's buffers", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				def1.Resource[0] = 'X'

				loaded, _ := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(loaded.Resource).To(gomega.Equal([]byte("<resource>")))
			})

			ginkgo.It("makes the definition visible within the same transaction", func() {
				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.SaveProcessDefinition(tc.Context, def1)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

					_, ok, err := tx.LoadProcessDefinitionByKey(tc.Context, "<tenant>", 1)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					gomega.Expect(ok).To(gomega.BeTrue())
				})
			})
		})

		ginkgo.Describe("func LoadProcessDefinitionByKey()", func() {
			ginkgo.It("returns false if the definition does not exist", func() {
				_, ok := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("does not return definitions that belong to other tenants", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				_, ok := loadByKey(tc.Context, dataStore, "<other-tenant>", 1)
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("allows the same key to be used by different tenants", func() {
				other := definition("<other-tenant>", 1, "<process-x>", 7)
				saveDefinitions(tc.Context, dataStore, def1, other)

				loaded, _ := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(loaded).To(equalRecord(def1))

				loaded, _ = loadByKey(tc.Context, dataStore, "<other-tenant>", 1)
				gomega.Expect(loaded).To(equalRecord(other))
			})
		})

		ginkgo.Describe("func LoadProcessDefinitionByVersion()", func() {
			ginkgo.It("returns false if the version does not exist", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				_, ok := loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 2)
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("returns the definition for each version", func() {
				saveDefinitions(tc.Context, dataStore, def1, def2, def3)

				loaded, _ := loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 1)
				gomega.Expect(loaded).To(equalRecord(def1))

				loaded, _ = loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 2)
				gomega.Expect(loaded).To(equalRecord(def2))

				loaded, _ = loadByVersion(tc.Context, dataStore, "<tenant>", "<process-b>", 1)
				gomega.Expect(loaded).To(equalRecord(def3))
			})

			ginkgo.It("does not confuse process IDs that share a prefix", func() {
				a := definition("<tenant>", 1, "order", 1)
				b := definition("<tenant>", 2, "order-2", 1)
				saveDefinitions(tc.Context, dataStore, a, b)

				loaded, _ := loadByVersion(tc.Context, dataStore, "<tenant>", "order", 1)
				gomega.Expect(loaded).To(equalRecord(a))
			})
		})

		ginkgo.Describe("func RemoveProcessDefinition()", func() {
			ginkgo.It("removes the definition from both indexes", func() {
				saveDefinitions(tc.Context, dataStore, def1, def2)

				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.RemoveProcessDefinition(tc.Context, def1)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})

				_, ok := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeFalse())

				_, ok = loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 1)
				gomega.Expect(ok).To(gomega.BeFalse())

				_, ok = loadByKey(tc.Context, dataStore, "<tenant>", 2)
				gomega.Expect(ok).To(gomega.BeTrue())
			})

			ginkgo.It("returns a NotFoundError if the definition does not exist", func() {
				err := persistence.WithTransaction(
					tc.Context,
					dataStore,
					func(tx persistence.ManagedTransaction) error {
						return tx.RemoveProcessDefinition(tc.Context, def1)
					},
				)
				gomega.Expect(err).To(gomega.Equal(
					persistence.NotFoundError{
						Table:    persistence.RecordsByKeyTable,
						TenantID: "<tenant>",
						Key:      "1",
					},
				))
			})

			ginkgo.It("returns a NotFoundError if the version index entry does not exist", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				mismatched := def1
				mismatched.Version = 5

				err := persistence.WithTransaction(
					tc.Context,
					dataStore,
					func(tx persistence.ManagedTransaction) error {
						return tx.RemoveProcessDefinition(tc.Context, mismatched)
					},
				)
				gomega.Expect(err).To(gomega.Equal(
					persistence.NotFoundError{
						Table:    persistence.RecordsByIDVersionTable,
						TenantID: "<tenant>",
						Key:      "<process-a>@5",
					},
				))

				_, ok := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeTrue())
			})

			ginkgo.It("returns a NotFoundError if the key and version belong to different definitions", func() {
				saveDefinitions(tc.Context, dataStore, def1, def2)

				mismatched := def1
				mismatched.Version = def2.Version

				err := persistence.WithTransaction(
					tc.Context,
					dataStore,
					func(tx persistence.ManagedTransaction) error {
						return tx.RemoveProcessDefinition(tc.Context, mismatched)
					},
				)
				gomega.Expect(err).To(gomega.Equal(
					persistence.NotFoundError{
						Table:    persistence.RecordsByIDVersionTable,
						TenantID: "<tenant>",
						Key:      "<process-a>@2",
					},
				))

				for _, def := range []persistence.ProcessDefinition{def1, def2} {
					loaded, ok := loadByKey(tc.Context, dataStore, "<tenant>", def.Key)
					gomega.Expect(ok).To(gomega.BeTrue())
					gomega.Expect(loaded).To(equalRecord(def))

					loaded, ok = loadByVersion(tc.Context, dataStore, "<tenant>", def.ProcessID, def.Version)
					gomega.Expect(ok).To(gomega.BeTrue())
					gomega.Expect(loaded).To(equalRecord(def))
				}
			})
		})

		ginkgo.Describe("func UpdateProcessDefinitionState()", func() {
			ginkgo.It("updates the state under both indexes", func() {
				saveDefinitions(tc.Context, dataStore, def1)

				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.UpdateProcessDefinitionState(tc.Context, "<tenant>", 1, persistence.ProcessPendingDeletion)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})

				def1.State = persistence.ProcessPendingDeletion

				loaded, _ := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(loaded).To(equalRecord(def1))

				loaded, _ = loadByVersion(tc.Context, dataStore, "<tenant>", "<process-a>", 1)
				gomega.Expect(loaded).To(equalRecord(def1))
			})

			ginkgo.It("returns a NotFoundError if the definition does not exist", func() {
				err := persistence.WithTransaction(
					tc.Context,
					dataStore,
					func(tx persistence.ManagedTransaction) error {
						return tx.UpdateProcessDefinitionState(tc.Context, "<tenant>", 1, persistence.ProcessPendingDeletion)
					},
				)
				gomega.Expect(err).To(gomega.Equal(
					persistence.NotFoundError{
						Table:    persistence.RecordsByKeyTable,
						TenantID: "<tenant>",
						Key:      "1",
					},
				))
			})
		})

		ginkgo.Describe("func RangeProcessDefinitions()", func() {
			ginkgo.BeforeEach(func() {
				saveDefinitions(
					tc.Context,
					dataStore,
					def3,
					definition("<other-tenant>", 2, "<process-x>", 1),
					def1,
					definition("<tenant>", 300, "<process-c>", 1),
					def2,
				)
			})

			ginkgo.It("visits the tenant's definitions in order of ascending key", func() {
				var keys []uint64

				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.RangeProcessDefinitions(
						tc.Context,
						"<tenant>",
						func(def persistence.ProcessDefinition) bool {
							gomega.Expect(def.TenantID).To(gomega.Equal("<tenant>"))
							keys = append(keys, def.Key)
							return true
						},
					)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})

				gomega.Expect(keys).To(gomega.Equal([]uint64{1, 2, 3, 300}))
			})

			ginkgo.It("stops when fn returns false", func() {
				var keys []uint64

				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.RangeProcessDefinitions(
						tc.Context,
						"<tenant>",
						func(def persistence.ProcessDefinition) bool {
							keys = append(keys, def.Key)
							return len(keys) < 2
						},
					)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})

				gomega.Expect(keys).To(gomega.Equal([]uint64{1, 2}))
			})

			ginkgo.It("does not call fn if the tenant has no definitions", func() {
				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.RangeProcessDefinitions(
						tc.Context,
						"<unknown-tenant>",
						func(persistence.ProcessDefinition) bool {
							ginkgo.Fail("unexpected call")
							return false
						},
					)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})
			})
		})
	})
}
