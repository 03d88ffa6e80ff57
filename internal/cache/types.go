package cache

// Cache defines the interface for a loader's key -> value memo.
// Keys are canonical loader keys and must be hashable.
// This interface allows for different implementations (map, LRU, no-op).
type Cache[V any] interface {
	// Get retrieves a cached value by key
	// Returns the value and true if found, zero value and false otherwise
	Get(key any) (V, bool)

	// Set stores a value in the cache with the given key
	Set(key any, value V)

	// Delete removes the entry for key, reporting whether it was present
	Delete(key any) bool

	// Clear removes every entry
	Clear()

	// Len returns the number of entries
	Len() int
}
