package boltpersistence_test

import (
	"context"
	"time"

	"github.com/dogmatiq/procstore/internal/testing/boltdbtest"
	"github.com/dogmatiq/procstore/persistence"
	. "github.com/dogmatiq/procstore/persistence/boltpersistence"
	"github.com/dogmatiq/procstore/persistence/internal/providertest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Provider", func() {
	providertest.Declare(
		func(ctx context.Context, in providertest.In) providertest.Out {
			return providertest.Out{
				NewProvider: func() (persistence.Provider, func()) {
					db, close := boltdbtest.Open()

					return &Provider{
						DB: db,
					}, close
				},
			}
		},
		nil,
	)
})

var _ = Describe("type FileProvider", func() {
	providertest.Declare(
		func(ctx context.Context, in providertest.In) providertest.Out {
			return providertest.Out{
				NewProvider: func() (persistence.Provider, func()) {
					path, remove := boltdbtest.TempFile()

					return &FileProvider{
						Path: path,
					}, remove
				},
			}
		},
		nil,
	)

	Describe("func Open()", func() {
		It("returns an error if the DB can not be opened", func() {
			db, close := boltdbtest.Open()
			defer close()

			provider := &FileProvider{
				Path: db.Path(), // use the same file as the (open) DB.
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()

			ds, err := provider.Open(ctx, "<store>")
			if ds != nil {
				ds.Close()
			}
			Expect(err).To(Equal(context.DeadlineExceeded))
		})
	})
})
