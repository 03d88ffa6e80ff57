package dataloader

import (
	"time"

	"github.com/rs/zerolog"

	"nplusone/internal/cache"
)

// DefaultWait is the default scheduling window armed by the first miss
const DefaultWait = time.Millisecond

// Option configures a Loader
type Option[K comparable, V any] func(*Loader[K, V])

// WithMaxBatchSize caps the number of distinct keys per dispatch; 0 = no limit.
// A batch that reaches the cap is dispatched immediately.
func WithMaxBatchSize[K comparable, V any](n int) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.maxBatchSize = n
	}
}

// WithCacheEnabled toggles memoization. When disabled every Load goes to a
// batch, though keys are still deduplicated within one batch.
func WithCacheEnabled[K comparable, V any](enabled bool) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.cacheEnabled = enabled
	}
}

// WithCache sets the cache implementation
func WithCache[K comparable, V any](c cache.Cache[*Future[V]]) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.cache = c
	}
}

// WithLRUCache bounds the cache to size entries
func WithLRUCache[K comparable, V any](size int) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.cacheSize = size
	}
}

// WithKeyFunc overrides key equality for deduplication and caching
func WithKeyFunc[K comparable, V any](fn KeyFunc[K]) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.keyFn = fn
	}
}

// WithWait sets how long a batch accumulates after its first key
func WithWait[K comparable, V any](d time.Duration) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.wait = d
	}
}

// WithManualDispatch disables the window timer: batches are dispatched by
// Flush or by reaching MaxBatchSize only.
func WithManualDispatch[K comparable, V any]() Option[K, V] {
	return func(l *Loader[K, V]) {
		l.manual = true
	}
}

// WithScheduleFunc replaces the window timer with fn
func WithScheduleFunc[K comparable, V any](fn ScheduleFunc) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.scheduleFn = fn
	}
}

// WithBatchTimeout bounds every fetch call. A timed out batch fails all of
// its waiters with a FetchFunctionError.
func WithBatchTimeout[K comparable, V any](d time.Duration) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.batchTimeout = d
	}
}

// WithLogger sets the logger
func WithLogger[K comparable, V any](logger zerolog.Logger) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.logger = logger
	}
}

// WithName names the loader in log output
func WithName[K comparable, V any](name string) Option[K, V] {
	return func(l *Loader[K, V]) {
		l.name = name
	}
}
