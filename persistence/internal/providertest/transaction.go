package providertest

import (
	"context"
	"errors"

	"github.com/dogmatiq/procstore/persistence"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"
)

func declareTransactionTests(tc *TestContext) {
	ginkgo.Describe("type Transaction (interface)", func() {
		var (
			dataStore   persistence.DataStore
			transaction persistence.Transaction
		)

		ginkgo.BeforeEach(func() {
			_, dataStore = tc.SetupDataStore()

			var err error
			transaction, err = dataStore.Begin(tc.Context)
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			ginkgo.DeferCleanup(func() { transaction.Rollback() })
		})

		ginkgo.Describe("func Commit()", func() {
			ginkgo.It("makes changes visible to subsequent transactions", func() {
				def := definition("<tenant>", 1, "<process>", 1)

				err := transaction.SaveProcessDefinition(tc.Context, def)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = transaction.Commit(tc.Context)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, ok := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeTrue())
			})

			ginkgo.It("returns an error if the context is canceled", func() {
				ctx, cancel := context.WithCancel(tc.Context)
				cancel()

				err := transaction.Commit(ctx)
				gomega.Expect(err).To(gomega.Equal(context.Canceled))
			})
		})

		ginkgo.Describe("func Rollback()", func() {
			ginkgo.It("discards changes made within the transaction", func() {
				err := transaction.SaveProcessDefinition(tc.Context, definition("<tenant>", 1, "<process>", 1))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = transaction.SaveVersionInfo(tc.Context, persistence.VersionInfo{
					TenantID:       "<tenant>",
					ProcessID:      "<process>",
					HighestVersion: 1,
					KnownVersions:  []uint64{1},
				})
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = transaction.SaveDigest(tc.Context, "<tenant>", "<process>", []byte("<checksum>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = transaction.Rollback()
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, ok := loadByKey(tc.Context, dataStore, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeFalse())

				_, ok = loadByVersion(tc.Context, dataStore, "<tenant>", "<process>", 1)
				gomega.Expect(ok).To(gomega.BeFalse())

				_, ok = loadVersionInfo(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeFalse())

				_, ok = loadDigest(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeFalse())
			})
		})

		closedTests := func() {
			ginkgo.It("causes all operations to return an error", func() {
				ctx := tc.Context
				def := definition("<tenant>", 1, "<process>", 1)

				operations := map[string]func() error{
					"SaveProcessDefinition": func() error {
						return transaction.SaveProcessDefinition(ctx, def)
					},
					"LoadProcessDefinitionByKey": func() error {
						_, _, err := transaction.LoadProcessDefinitionByKey(ctx, "<tenant>", 1)
						return err
					},
					"LoadProcessDefinitionByVersion": func() error {
						_, _, err := transaction.LoadProcessDefinitionByVersion(ctx, "<tenant>", "<process>", 1)
						return err
					},
					"RemoveProcessDefinition": func() error {
						return transaction.RemoveProcessDefinition(ctx, def)
					},
					"UpdateProcessDefinitionState": func() error {
						return transaction.UpdateProcessDefinitionState(ctx, "<tenant>", 1, persistence.ProcessPendingDeletion)
					},
					"RangeProcessDefinitions": func() error {
						return transaction.RangeProcessDefinitions(
							ctx,
							"<tenant>",
							func(persistence.ProcessDefinition) bool { return true },
						)
					},
					"LoadVersionInfo": func() error {
						_, _, err := transaction.LoadVersionInfo(ctx, "<tenant>", "<process>")
						return err
					},
					"SaveVersionInfo": func() error {
						return transaction.SaveVersionInfo(ctx, persistence.VersionInfo{TenantID: "<tenant>", ProcessID: "<process>"})
					},
					"LoadDigest": func() error {
						_, _, err := transaction.LoadDigest(ctx, "<tenant>", "<process>")
						return err
					},
					"SaveDigest": func() error {
						return transaction.SaveDigest(ctx, "<tenant>", "<process>", nil)
					},
					"RemoveDigest": func() error {
						return transaction.RemoveDigest(ctx, "<tenant>", "<process>")
					},
					"Commit": func() error {
						return transaction.Commit(ctx)
					},
					"Rollback": func() error {
						return transaction.Rollback()
					},
				}

				for name, op := range operations {
					err := op()
					gomega.Expect(err).To(
						gomega.Equal(persistence.ErrTransactionClosed),
						"unexpected result from %s()",
						name,
					)
				}
			})
		}

		ginkgo.When("the transaction has been committed", func() {
			ginkgo.BeforeEach(func() {
				err := transaction.Commit(tc.Context)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})

			closedTests()
		})

		ginkgo.When("the transaction has been rolled-back", func() {
			ginkgo.BeforeEach(func() {
				err := transaction.Rollback()
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})

			closedTests()
		})
	})

	ginkgo.Describe("func WithTransaction()", func() {
		var dataStore persistence.DataStore

		ginkgo.BeforeEach(func() {
			_, dataStore = tc.SetupDataStore()
		})

		ginkgo.It("rolls back the transaction if fn returns an error", func() {
			cause := errors.New("<error>")

			err := persistence.WithTransaction(
				tc.Context,
				dataStore,
				func(tx persistence.ManagedTransaction) error {
					err := tx.SaveDigest(tc.Context, "<tenant>", "<process>", []byte("<checksum>"))
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					return cause
				},
			)
			gomega.Expect(err).To(gomega.Equal(cause))

			_, ok := loadDigest(tc.Context, dataStore, "<tenant>", "<process>")
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("serializes concurrent read-modify-write transactions", func() {
			const count = 20

			g, ctx := errgroup.WithContext(tc.Context)

			for i := 0; i < count; i++ {
				g.Go(func() error {
					return persistence.WithTransaction(
						ctx,
						dataStore,
						func(tx persistence.ManagedTransaction) error {
							info, _, err := tx.LoadVersionInfo(ctx, "<tenant>", "<process>")
							if err != nil {
								return err
							}

							info.TenantID = "<tenant>"
							info.ProcessID = "<process>"
							info.Add(info.HighestVersion + 1)

							return tx.SaveVersionInfo(ctx, info)
						},
					)
				})
			}

			err := g.Wait()
			gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

			info, ok := loadVersionInfo(tc.Context, dataStore, "<tenant>", "<process>")
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(info.HighestVersion).To(gomega.BeEquivalentTo(count))
			gomega.Expect(info.KnownVersions).To(gomega.HaveLen(count))
		})
	})
}
