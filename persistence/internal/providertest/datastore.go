package providertest

import (
	"github.com/dogmatiq/procstore/persistence"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func declareDataStoreTests(tc *TestContext) {
	ginkgo.Describe("type DataStore (interface)", func() {
		var dataStore persistence.DataStore

		ginkgo.BeforeEach(func() {
			_, dataStore = tc.SetupDataStore()
		})

		ginkgo.Describe("func Begin()", func() {
			ginkgo.It("returns an error if the data-store is closed", func() {
				err := dataStore.Close()
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, err = dataStore.Begin(tc.Context)
				gomega.Expect(err).To(gomega.Equal(persistence.ErrDataStoreClosed))
			})
		})

		ginkgo.Describe("func Close()", func() {
			ginkgo.It("returns an error if the data-store is already closed", func() {
				err := dataStore.Close()
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = dataStore.Close()
				gomega.Expect(err).To(gomega.Equal(persistence.ErrDataStoreClosed))
			})

			ginkgo.It("prevents transactions from being committed", func() {
				tx, err := dataStore.Begin(tc.Context)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer tx.Rollback()

				err = dataStore.Close()
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = tx.Commit(tc.Context)
				gomega.Expect(err).To(gomega.Equal(persistence.ErrDataStoreClosed))
			})
		})
	})
}
