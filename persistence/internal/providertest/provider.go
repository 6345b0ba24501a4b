package providertest

import (
	"github.com/dogmatiq/procstore/persistence"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func declareProviderTests(tc *TestContext) {
	ginkgo.Describe("type Provider (interface)", func() {
		var provider persistence.Provider

		ginkgo.BeforeEach(func() {
			var close func()
			provider, close = tc.Out.NewProvider()
			if close != nil {
				ginkgo.DeferCleanup(close)
			}
		})

		ginkgo.Describe("func Open()", func() {
			ginkgo.It("returns an error if the data-store is already open", func() {
				ds, err := provider.Open(tc.Context, tc.In.StoreName)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer ds.Close()

				_, err = provider.Open(tc.Context, tc.In.StoreName)
				gomega.Expect(err).To(gomega.Equal(persistence.ErrDataStoreLocked))
			})

			ginkgo.It("allows the data-store to be re-opened after it is closed", func() {
				ds, err := provider.Open(tc.Context, tc.In.StoreName)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = ds.Close()
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				ds, err = provider.Open(tc.Context, tc.In.StoreName)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				ds.Close()
			})

			ginkgo.It("returns different instances for different names", func() {
				ds1, err := provider.Open(tc.Context, "<store-1>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer ds1.Close()

				ds2, err := provider.Open(tc.Context, "<store-2>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer ds2.Close()

				gomega.Expect(ds1).ToNot(gomega.BeIdenticalTo(ds2))
			})

			ginkgo.It("isolates the data of each data-store", func() {
				ds1, err := provider.Open(tc.Context, "<store-1>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer ds1.Close()

				ds2, err := provider.Open(tc.Context, "<store-2>")
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer ds2.Close()

				saveDefinitions(tc.Context, ds1, definition("<tenant>", 1, "<process>", 1))

				_, ok := loadByKey(tc.Context, ds2, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeFalse())
			})

			ginkgo.It("retains data after the data-store is re-opened", func() {
				def := definition("<tenant>", 1, "<process>", 1)

				ds, err := provider.Open(tc.Context, tc.In.StoreName)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				saveDefinitions(tc.Context, ds, def)
				ds.Close()

				ds, err = provider.Open(tc.Context, tc.In.StoreName)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				defer ds.Close()

				loaded, ok := loadByKey(tc.Context, ds, "<tenant>", 1)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(loaded).To(equalRecord(def))
			})
		})
	})
}
