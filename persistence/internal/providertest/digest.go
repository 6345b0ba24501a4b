package providertest

import (
	"github.com/dogmatiq/procstore/persistence"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func declareDigestTests(tc *TestContext) {
	ginkgo.Describe("type DigestTable (interface)", func() {
		var dataStore persistence.DataStore

		ginkgo.BeforeEach(func() {
			_, dataStore = tc.SetupDataStore()
		})

		save := func(tenantID, processID string, checksum []byte) {
			inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
				err := tx.SaveDigest(tc.Context, tenantID, processID, checksum)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})
		}

		ginkgo.Describe("func LoadDigest()", func() {
			ginkgo.It("returns false if there is no digest", func() {
				_, ok := loadDigest(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("does not return digests that belong to other tenants", func() {
				save("<tenant>", "<process>", []byte("<checksum>"))

				_, ok := loadDigest(tc.Context, dataStore, "<other-tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeFalse())
			})
		})

		ginkgo.Describe("func SaveDigest()", func() {
			ginkgo.It("saves the digest", func() {
				save("<tenant>", "<process>", []byte("<checksum>"))

				checksum, ok := loadDigest(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(checksum).To(gomega.Equal([]byte("<checksum>")))
			})

			ginkgo.It("replaces an existing digest", func() {
				save("<tenant>", "<process>", []byte("<checksum-1>"))
				save("<tenant>", "<process>", []byte("<checksum-2>"))

				checksum, _ := loadDigest(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(checksum).To(gomega.Equal([]byte("<checksum-2>")))
			})

			ginkgo.It("saves an empty digest", func() {
				save("<tenant>", "<process>", nil)

				checksum, ok := loadDigest(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(checksum).To(gomega.BeEmpty())
			})
		})

		ginkgo.Describe("func RemoveDigest()", func() {
			ginkgo.It("removes the digest", func() {
				save("<tenant>", "<process>", []byte("<checksum>"))

				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.RemoveDigest(tc.Context, "<tenant>", "<process>")
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})

				_, ok := loadDigest(tc.Context, dataStore, "<tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("does nothing if there is no digest", func() {
				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.RemoveDigest(tc.Context, "<tenant>", "<process>")
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})
			})

			ginkgo.It("does not affect other tenants", func() {
				save("<tenant>", "<process>", []byte("<checksum>"))
				save("<other-tenant>", "<process>", []byte("<checksum>"))

				inTx(tc.Context, dataStore, func(tx persistence.ManagedTransaction) {
					err := tx.RemoveDigest(tc.Context, "<tenant>", "<process>")
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				})

				_, ok := loadDigest(tc.Context, dataStore, "<other-tenant>", "<process>")
				gomega.Expect(ok).To(gomega.BeTrue())
			})
		})
	})
}
