package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache is an unbounded map-backed cache. It is the default for a
// loader, whose lifetime is a single logical operation.
type MemoryCache[V any] struct {
	entries map[any]V
	mu      sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache[V any]() *MemoryCache[V] {
	return &MemoryCache[V]{
		entries: make(map[any]V),
	}
}

// Get retrieves a value from the cache
func (mc *MemoryCache[V]) Get(key any) (V, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	v, ok := mc.entries[key]
	return v, ok
}

// Set stores a value in the cache
func (mc *MemoryCache[V]) Set(key any, value V) {
	mc.mu.Lock()
	mc.entries[key] = value
	mc.mu.Unlock()
}

// Delete removes a value from the cache
func (mc *MemoryCache[V]) Delete(key any) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	_, ok := mc.entries[key]
	delete(mc.entries, key)
	return ok
}

// Clear removes all entries
func (mc *MemoryCache[V]) Clear() {
	mc.mu.Lock()
	mc.entries = make(map[any]V)
	mc.mu.Unlock()
}

// Len returns the number of entries
func (mc *MemoryCache[V]) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.entries)
}

// LRUCache is a bounded cache that evicts the least recently used entry
// once size is reached. Evicted keys are simply fetched again on next load.
type LRUCache[V any] struct {
	cache *lru.Cache[any, V]
}

// NewLRUCache creates a new LRU cache holding at most size entries
func NewLRUCache[V any](size int) (*LRUCache[V], error) {
	c, err := lru.New[any, V](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &LRUCache[V]{cache: c}, nil
}

// Get retrieves a value from the cache, marking it as recently used
func (lc *LRUCache[V]) Get(key any) (V, bool) {
	return lc.cache.Get(key)
}

// Set stores a value in the cache
func (lc *LRUCache[V]) Set(key any, value V) {
	lc.cache.Add(key, value)
}

// Delete removes a value from the cache
func (lc *LRUCache[V]) Delete(key any) bool {
	return lc.cache.Remove(key)
}

// Clear removes all entries
func (lc *LRUCache[V]) Clear() {
	lc.cache.Purge()
}

// Len returns the number of entries
func (lc *LRUCache[V]) Len() int {
	return lc.cache.Len()
}

// NoopCache is a cache that does nothing (used when caching is disabled)
type NoopCache[V any] struct{}

// NewNoopCache creates a new no-op cache
func NewNoopCache[V any]() *NoopCache[V] {
	return &NoopCache[V]{}
}

// Get always returns not found
func (nc *NoopCache[V]) Get(key any) (V, bool) {
	var zero V
	return zero, false
}

// Set does nothing
func (nc *NoopCache[V]) Set(key any, value V) {}

// Delete does nothing
func (nc *NoopCache[V]) Delete(key any) bool { return false }

// Clear does nothing
func (nc *NoopCache[V]) Clear() {}

// Len is always zero
func (nc *NoopCache[V]) Len() int { return 0 }
