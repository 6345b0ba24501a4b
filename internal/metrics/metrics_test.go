package metrics_test

import (
	"errors"

	. "github.com/dogmatiq/procstore/internal/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
)

var _ = Describe("func Register()", func() {
	var reg *prometheus.Registry

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
	})

	It("can be called more than once with the same registerer", func() {
		err := Register(reg)
		Expect(err).ShouldNot(HaveOccurred())

		err = Register(reg)
		Expect(err).ShouldNot(HaveOccurred())
	})

	It("registers the collectors", func() {
		err := Register(reg)
		Expect(err).ShouldNot(HaveOccurred())

		IncCacheHit(ByKeyCache)
		IncCacheMiss(ByIDVersionCache)
		IncCacheEviction(ByKeyCache)
		IncReconstruction()

		names := map[string]bool{}

		mfs, err := reg.Gather()
		Expect(err).ShouldNot(HaveOccurred())

		for _, mf := range mfs {
			names[mf.GetName()] = len(mf.GetMetric()) > 0
		}

		Expect(names).To(HaveKeyWithValue("procstore_cache_hits_total", true))
		Expect(names).To(HaveKeyWithValue("procstore_cache_misses_total", true))
		Expect(names).To(HaveKeyWithValue("procstore_cache_evictions_total", true))
		Expect(names).To(HaveKeyWithValue("procstore_process_reconstructions_total", true))
	})

	It("counts each cache separately", func() {
		err := Register(reg)
		Expect(err).ShouldNot(HaveOccurred())

		byKey := hits(reg, ByKeyCache)
		byIDVersion := hits(reg, ByIDVersionCache)

		IncCacheHit(ByKeyCache)
		IncCacheHit(ByKeyCache)
		IncCacheHit(ByIDVersionCache)

		Expect(hits(reg, ByKeyCache)).To(Equal(byKey + 2))
		Expect(hits(reg, ByIDVersionCache)).To(Equal(byIDVersion + 1))
	})

	It("returns an error if a different collector with the same name is registered", func() {
		conflict := prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "procstore",
				Name:      "process_reconstructions_total",
				Help:      "<conflict>",
			},
		)
		err := reg.Register(conflict)
		Expect(err).ShouldNot(HaveOccurred())

		err = Register(reg)
		Expect(err).Should(HaveOccurred())

		var are prometheus.AlreadyRegisteredError
		Expect(errors.As(err, &are)).To(BeFalse())
	})
})

// hits returns the value of the hit counter for the named cache.
func hits(reg prometheus.Gatherer, cache string) float64 {
	mfs, err := reg.Gather()
	Expect(err).ShouldNot(HaveOccurred())

	for _, mf := range mfs {
		if mf.GetName() != "procstore_cache_hits_total" {
			continue
		}

		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "cache" && l.GetValue() == cache {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}
