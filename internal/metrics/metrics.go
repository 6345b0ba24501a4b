// Package metrics holds the Prometheus collectors for the process-definition
// caches.
package metrics

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Values of the "cache" label.
const (
	ByKeyCache       = "by_key"
	ByIDVersionCache = "by_id_version"
)

// Package-level collectors. They are registered via Register.
var (
	regOK atomic.Bool

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procstore",
			Name:      "cache_hits_total",
			Help:      "Number of process lookups served from a cache.",
		}, []string{"cache"},
	)
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procstore",
			Name:      "cache_misses_total",
			Help:      "Number of process lookups that were not found in a cache.",
		}, []string{"cache"},
	)
	cacheEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procstore",
			Name:      "cache_evictions_total",
			Help:      "Number of processes evicted from a cache to make room for another.",
		}, []string{"cache"},
	)
	reconstructions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "procstore",
			Name:      "process_reconstructions_total",
			Help:      "Number of executable processes rebuilt from persisted definitions.",
		},
	)
)

// Register registers all collectors with r.
//
// It is safe to call multiple times. Collectors that are already registered
// with r are left in place.
func Register(r prometheus.Registerer) error {
	cs := []prometheus.Collector{cacheHits, cacheMisses, cacheEvictions, reconstructions}

	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}

	regOK.Store(true)
	return nil
}

// The helpers below are no-ops until Register succeeds.

// IncCacheHit records a lookup that was served from the named cache.
func IncCacheHit(cache string) {
	if regOK.Load() {
		cacheHits.WithLabelValues(cache).Inc()
	}
}

// IncCacheMiss records a lookup that was not found in the named cache.
func IncCacheMiss(cache string) {
	if regOK.Load() {
		cacheMisses.WithLabelValues(cache).Inc()
	}
}

// IncCacheEviction records an entry being evicted from the named cache.
func IncCacheEviction(cache string) {
	if regOK.Load() {
		cacheEvictions.WithLabelValues(cache).Inc()
	}
}

// IncReconstruction records an executable process being rebuilt from its
// persisted definition.
func IncReconstruction() {
	if regOK.Load() {
		reconstructions.Inc()
	}
}
