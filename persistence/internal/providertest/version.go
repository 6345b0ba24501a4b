package providertest

import (
	"github.com/dogmatiq/procstore/persistence"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func declareVersionLedgerTests(tc *TestContext) {
	ginkgo.Describe("type VersionLedger (interface)", func() {
		var dataStore persistence.DataStore

		ginkgo.BeforeEach(func() {
			_, dataStore = tc.SetupDataStore()
		})

		save := func(info persistence.VersionInfo) {
			inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
				err := tx.SaveVersionInfo(tc.Context, info)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})
		}

		ginkgo.Describe("func LoadVersionInfo()", func() {
			ginkgo.It("returns false if no version has been recorded", func() {
				_, ok := loadVersionInfo(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("does not return information that belongs to other tenants", func() {
				save(persistence.VersionInfo{
					TenantID:       "<tenant>",
					ProcessID:      "<process>",
					HighestVersion: 1,
					KnownVersions:  []uint64{1},
				})

				_, ok := loadVersionInfo(tc.Context, dataStore, "<other-tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeFalse())
			})
		})

		ginkgo.Describe("func SaveVersionInfo()", func() {
			ginkgo.It("saves the version information", func() {
				info := persistence.VersionInfo{
					TenantID:       "<tenant>",
					ProcessID:      "<process>",
					HighestVersion: 7,
					KnownVersions:  []uint64{1, 3, 7},
				}
				save(info)

				loaded, ok := loadVersionInfo(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(info))
			})

			ginkgo.It("replaces existing version information", func() {
				save(persistence.VersionInfo{
					TenantID:       "<tenant>",
					ProcessID:      "<process>",
					HighestVersion: 1,
					KnownVersions:  []uint64{1},
				})

				info := persistence.VersionInfo{
					TenantID:       "<tenant>",
					ProcessID:      "<process>",
					HighestVersion: 2,
					KnownVersions:  []uint64{2},
				}
				save(info)

				loaded, _ := loadVersionInfo(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(loaded).To(equalRecord(info))
			})

			ginkgo.It("retains the highest version when no versions remain", func() {
				info := persistence.VersionInfo{
					TenantID:       "<tenant>",
					ProcessID:      "<process>",
					HighestVersion: 4,
				}
				save(info)

				loaded, ok := loadVersionInfo(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(info))
				gomega.Expect(loaded.Latest()).To(gomega.BeZero())
			})
		})
	})
}
