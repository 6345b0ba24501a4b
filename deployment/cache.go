package deployment

import (
	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/procstore/internal/metrics"
	"github.com/dogmatiq/procstore/internal/x/containerx/lru"
)

// keyRef identifies a process by its definition key.
type keyRef struct {
	TenantID string
	Key      uint64
}

// versionRef identifies a process by its ID and version.
type versionRef struct {
	TenantID  string
	ProcessID string
	Version   uint64
}

func refsOf(p *Process) (keyRef, versionRef) {
	return keyRef{p.def.TenantID, p.def.Key},
		versionRef{p.def.TenantID, p.def.ProcessID, p.def.Version}
}

// processCache is a pair of LRU caches that index the same executable
// processes by key and by ID and version.
//
// Entries are always added to both caches. Each cache evicts independently.
type processCache struct {
	byKey     *lru.Cache[keyRef, *Process]
	byVersion *lru.Cache[versionRef, *Process]
}

func newProcessCache(capacity int, logger logging.Logger) *processCache {
	c := &processCache{
		byKey:     lru.New[keyRef, *Process](capacity),
		byVersion: lru.New[versionRef, *Process](capacity),
	}

	c.byKey.OnEvict = func(ref keyRef, _ *Process) {
		metrics.IncCacheEviction(metrics.ByKeyCache)
		logging.Debug(
			logger,
			"@%s | process with key %d evicted from cache",
			ref.TenantID,
			ref.Key,
		)
	}

	c.byVersion.OnEvict = func(ref versionRef, _ *Process) {
		metrics.IncCacheEviction(metrics.ByIDVersionCache)
		logging.Debug(
			logger,
			"@%s | process '%s' v%d evicted from cache",
			ref.TenantID,
			ref.ProcessID,
			ref.Version,
		)
	}

	return c
}

func (c *processCache) getByKey(ref keyRef) (*Process, bool) {
	p, ok := c.byKey.Get(ref)
	count(metrics.ByKeyCache, ok)
	return p, ok
}

func (c *processCache) getByVersion(ref versionRef) (*Process, bool) {
	p, ok := c.byVersion.Get(ref)
	count(metrics.ByIDVersionCache, ok)
	return p, ok
}

// peekByKey returns the process with the given key without recording a cache
// lookup.
func (c *processCache) peekByKey(ref keyRef) (*Process, bool) {
	return c.byKey.Peek(ref)
}

func (c *processCache) put(p *Process) {
	k, v := refsOf(p)
	c.byKey.Put(k, p)
	c.byVersion.Put(v, p)
}

func (c *processCache) invalidate(k keyRef, v versionRef) {
	c.byKey.Remove(k)
	c.byVersion.Remove(v)
}

func (c *processCache) clear() {
	c.byKey.Clear()
	c.byVersion.Clear()
}

func count(cache string, hit bool) {
	if hit {
		metrics.IncCacheHit(cache)
	} else {
		metrics.IncCacheMiss(cache)
	}
}
