// Package lru provides a fixed-capacity, least-recently-used cache.
package lru

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Cache is a fixed-capacity map that evicts the least-recently-used entry when
// a new entry is added to a full cache.
//
// It is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	entries  *simplelru.LRU[K, V]

	// OnEvict, if non-nil, is called when an entry is evicted to make room
	// for a new entry. It is not called by Remove() or Clear().
	OnEvict func(K, V)
}

// New returns a new cache that holds at most capacity entries.
//
// It panics if capacity is not positive.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		panic("capacity must be positive")
	}

	// simplelru calls its own eviction callback for removals too, so the
	// callback is left nil and eviction is done explicitly in Put().
	entries, err := simplelru.NewLRU[K, V](capacity, nil)
	if err != nil {
		panic(err)
	}

	return &Cache[K, V]{
		capacity: capacity,
		entries:  entries,
	}
}

// Capacity returns the maximum number of entries in the cache.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

// Get returns the value associated with k and marks it as the most recently
// used entry.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	return c.entries.Get(k)
}

// Peek returns the value associated with k without changing its position in
// the eviction order.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	return c.entries.Peek(k)
}

// Put associates v with k, making it the most recently used entry.
//
// If the cache is full, the least recently used entry is evicted.
func (c *Cache[K, V]) Put(k K, v V) {
	if !c.entries.Contains(k) && c.entries.Len() >= c.capacity {
		if ek, ev, ok := c.entries.RemoveOldest(); ok && c.OnEvict != nil {
			c.OnEvict(ek, ev)
		}
	}

	c.entries.Add(k, v)
}

// Remove removes the entry associated with k, if any.
func (c *Cache[K, V]) Remove(k K) {
	c.entries.Remove(k)
}

// Clear removes all entries from the cache.
func (c *Cache[K, V]) Clear() {
	c.entries.Purge()
}
