package memorypersistence_test

import (
	"context"
	"time"

	"github.com/dogmatiq/procstore/persistence"
	"github.com/dogmatiq/procstore/persistence/internal/providertest"
	. "github.com/dogmatiq/procstore/persistence/memorypersistence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Provider", func() {
	providertest.Declare(
		func(ctx context.Context, in providertest.In) providertest.Out {
			return providertest.Out{
				NewProvider: func() (persistence.Provider, func()) {
					return &Provider{}, nil
				},
			}
		},
		nil,
	)

	Describe("func Open()", func() {
		It("does not share data between provider instances", func() {
			ctx := context.Background()

			ds1, err := (&Provider{}).Open(ctx, "<store>")
			Expect(err).ShouldNot(HaveOccurred())
			defer ds1.Close()

			ds2, err := (&Provider{}).Open(ctx, "<store>")
			Expect(err).ShouldNot(HaveOccurred())
			defer ds2.Close()

			err = persistence.WithTransaction(
				ctx,
				ds1,
				func(tx persistence.ManagedTransaction) error {
					return tx.SaveDigest(ctx, "<tenant>", "<process>", []byte("<checksum>"))
				},
			)
			Expect(err).ShouldNot(HaveOccurred())

			err = persistence.WithTransaction(
				ctx,
				ds2,
				func(tx persistence.ManagedTransaction) error {
					_, ok, err := tx.LoadDigest(ctx, "<tenant>", "<process>")
					Expect(ok).To(BeFalse())
					return err
				},
			)
			Expect(err).ShouldNot(HaveOccurred())
		})
	})
})

var _ = Describe("type transaction", func() {
	It("blocks Begin() until the current transaction ends", func() {
		ctx := context.Background()

		ds, err := (&Provider{}).Open(ctx, "<store>")
		Expect(err).ShouldNot(HaveOccurred())
		defer ds.Close()

		tx, err := ds.Begin(ctx)
		Expect(err).ShouldNot(HaveOccurred())

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err = ds.Begin(waitCtx)
		Expect(err).To(Equal(context.DeadlineExceeded))

		err = tx.Rollback()
		Expect(err).ShouldNot(HaveOccurred())

		tx, err = ds.Begin(ctx)
		Expect(err).ShouldNot(HaveOccurred())
		tx.Rollback()
	})
})
