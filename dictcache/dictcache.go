// Package dictcache implements the per-function dictionary result cache:
// a bounded, concurrency-safe map from (dictionary content hash, size) to
// a previously computed result dictionary, so that a function executed
// repeatedly over blocks sharing one dictionary need not recompute its
// result for the whole dictionary every time.
//
// Grounded on ClickHouse's PreparedFunctionLowCardinalityResultCache
// (IFunction.cpp); backed by github.com/hashicorp/golang-lru/v2, the same
// bounded-LRU dependency the retrieval pack's cockroachdb-cockroach and
// milvus-io-milvus repos use for analogous per-key result caches.
package dictcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/coldispatch/coldispatch/column"
)

// Key identifies one cache entry: the source dictionary's 128-bit content
// hash (split into two uint64 halves, Go having no native uint128) plus
// its cardinality as a tie-breaker against hash collisions, exactly
// ClickHouse's DictionaryKey{UInt128 hash; UInt64 size}.
type Key struct {
	Hi, Lo uint64
	Size   uint64
}

// Value is a cached result: the dictionary that produced it (kept alive
// so the entry's identity remains meaningful for the cache's lifetime),
// the function's result over that whole dictionary, and the index remap
// from the source dictionary's rows to the result dictionary's rows (they
// coincide unless the function's output happens to collapse distinct
// input rows to equal output rows).
type Value struct {
	DictHolder column.Column
	Result     column.Column
	IndexRemap []int32
}

// Cache is a bounded LRU keyed by Key, safe for concurrent use. GetOrSet
// is linearizable: under concurrent misses for the same key, exactly one
// caller's Value becomes canonical and every caller (including the
// winner) observes the same canonical Value on return.
type Cache struct {
	mu    sync.Mutex
	inner *lru.Cache[Key, *Value]
}

// New creates a cache holding at most size entries. Eviction is strict
// LRU by entry count - no byte accounting, matching the source.
func New(size int) *Cache {
	inner, err := lru.New[Key, *Value](size)
	if err != nil {
		// only returns an error for size <= 0, a programming error here.
		panic(err)
	}
	return &Cache{inner: inner}
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key Key) (*Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Get(key)
}

// Set unconditionally installs v for key, replacing any existing entry.
func (c *Cache) Set(key Key, v *Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Add(key, v)
}

// GetOrSet returns the canonical Value for key: the existing entry if one
// is already present, otherwise v itself, having installed it. The
// returned hit flag reports whether v lost the race to an existing entry.
func (c *Cache) GetOrSet(key Key, v *Value) (canonical *Value, hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.inner.Get(key); ok {
		return existing, true
	}
	c.inner.Add(key, v)
	return v, false
}

// Len reports the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Len()
}
