package lru_test

import (
	. "github.com/dogmatiq/procstore/internal/x/containerx/lru"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Cache", func() {
	var cache *Cache[string, int]

	BeforeEach(func() {
		cache = New[string, int](2)
	})

	Describe("func New()", func() {
		It("panics if the capacity is not positive", func() {
			Expect(func() {
				New[string, int](0)
			}).To(PanicWith("capacity must be positive"))
		})
	})

	Describe("func Get()", func() {
		It("returns false if the key is not in the cache", func() {
			_, ok := cache.Get("<key>")
			Expect(ok).To(BeFalse())
		})

		It("returns the value associated with the key", func() {
			cache.Put("<key>", 1)

			v, ok := cache.Get("<key>")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(1))
		})

		It("marks the entry as recently used", func() {
			cache.Put("<a>", 1)
			cache.Put("<b>", 2)
			cache.Get("<a>")
			cache.Put("<c>", 3)

			_, ok := cache.Get("<a>")
			Expect(ok).To(BeTrue())

			_, ok = cache.Get("<b>")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("func Peek()", func() {
		It("returns the value without marking the entry as recently used", func() {
			cache.Put("<a>", 1)
			cache.Put("<b>", 2)

			v, ok := cache.Peek("<a>")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(1))

			cache.Put("<c>", 3)

			_, ok = cache.Peek("<a>")
			Expect(ok).To(BeFalse())

			_, ok = cache.Peek("<b>")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("func Put()", func() {
		It("replaces the value of an existing entry", func() {
			cache.Put("<key>", 1)
			cache.Put("<key>", 2)

			v, _ := cache.Get("<key>")
			Expect(v).To(Equal(2))
			Expect(cache.Len()).To(Equal(1))
		})

		It("evicts the least recently used entry when the cache is full", func() {
			var evicted []string
			cache.OnEvict = func(k string, _ int) {
				evicted = append(evicted, k)
			}

			cache.Put("<a>", 1)
			cache.Put("<b>", 2)
			cache.Put("<c>", 3)

			Expect(evicted).To(Equal([]string{"<a>"}))
			Expect(cache.Len()).To(Equal(2))
		})
	})

	Describe("func Remove()", func() {
		It("removes the entry without calling OnEvict", func() {
			cache.OnEvict = func(string, int) {
				Fail("unexpected eviction")
			}

			cache.Put("<key>", 1)
			cache.Remove("<key>")

			_, ok := cache.Get("<key>")
			Expect(ok).To(BeFalse())
			Expect(cache.Len()).To(Equal(0))
		})

		It("does nothing if the key is not in the cache", func() {
			cache.Remove("<key>")
			Expect(cache.Len()).To(Equal(0))
		})
	})

	Describe("func Clear()", func() {
		It("removes all entries", func() {
			cache.Put("<a>", 1)
			cache.Put("<b>", 2)
			cache.Clear()

			Expect(cache.Len()).To(Equal(0))

			_, ok := cache.Get("<a>")
			Expect(ok).To(BeFalse())

			cache.Put("<c>", 3)
			Expect(cache.Len()).To(Equal(1))
			Expect(cache.Capacity()).To(Equal(2))
		})
	})
})
