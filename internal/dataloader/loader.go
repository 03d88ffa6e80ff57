package dataloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nplusone/internal/cache"
)

// Loader batches and caches lookups for one logical operation
type Loader[K comparable, V any] struct {
	batchFn      BatchFunc[K, V]
	keyFn        KeyFunc[K]
	cache        cache.Cache[*Future[V]]
	cacheEnabled bool
	cacheSize    int
	maxBatchSize int
	wait         time.Duration
	manual       bool
	scheduleFn   ScheduleFunc
	batchTimeout time.Duration
	name         string
	logger       zerolog.Logger

	current  *batch[K, V] // open batch, nil when none
	inflight int          // dispatched batches not yet settled
	mu       sync.Mutex
}

// New creates a new Loader
func New[K comparable, V any](batchFn BatchFunc[K, V], opts ...Option[K, V]) (*Loader[K, V], error) {
	if batchFn == nil {
		return nil, errors.New("batch function is required")
	}

	l := &Loader[K, V]{
		batchFn:      batchFn,
		keyFn:        defaultKeyFunc[K],
		cacheEnabled: true,
		wait:         DefaultWait,
		name:         "loader",
		logger:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.keyFn == nil {
		return nil, errors.New("key function must not be nil")
	}
	if l.maxBatchSize < 0 {
		return nil, fmt.Errorf("max batch size must be non-negative, got %d", l.maxBatchSize)
	}
	if l.wait < 0 {
		return nil, fmt.Errorf("wait must be non-negative, got %s", l.wait)
	}
	if l.batchTimeout < 0 {
		return nil, fmt.Errorf("batch timeout must be non-negative, got %s", l.batchTimeout)
	}

	switch {
	case !l.cacheEnabled:
		l.cache = cache.NewNoopCache[*Future[V]]()
	case l.cache != nil:
	case l.cacheSize > 0:
		c, err := cache.NewLRUCache[*Future[V]](l.cacheSize)
		if err != nil {
			return nil, err
		}
		l.cache = c
	default:
		l.cache = cache.NewMemoryCache[*Future[V]]()
	}

	l.logger = l.logger.With().
		Str("component", "dataloader").
		Str("loader", l.name).
		Logger()

	return l, nil
}

// Load returns the future for key. A cached or in-flight future is returned
// unchanged; otherwise key joins the open batch. Load never blocks.
// An unusable key yields an already settled future holding a *CacheKeyError.
func (l *Loader[K, V]) Load(ctx context.Context, key K) *Future[V] {
	ck, err := l.cacheKey(key)
	if err != nil {
		var zero V
		return settledFuture(zero, &CacheKeyError{Key: key, Err: err})
	}

	l.mu.Lock()
	if f, ok := l.cache.Get(ck); ok {
		l.mu.Unlock()
		return f
	}

	f, opened, full := l.enqueue(ctx, ck, key)
	l.cache.Set(ck, f)
	l.mu.Unlock()

	if opened != nil && l.scheduleFn != nil {
		l.scheduleFn(func() {
			l.flushBatch(opened)
		})
	}
	if full != nil {
		go l.dispatch(full)
	}

	return f
}

// LoadMany loads every key, preserving input order in the result
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) *ManyFuture[V] {
	m := &ManyFuture[V]{
		keys:    make([]any, len(keys)),
		futures: make([]*Future[V], len(keys)),
	}
	for i, key := range keys {
		m.keys[i] = key
		m.futures[i] = l.Load(ctx, key)
	}
	return m
}

// Clear removes key from the cache so that the next Load refetches it.
// A future already handed out still settles normally.
func (l *Loader[K, V]) Clear(key K) {
	ck, err := l.cacheKey(key)
	if err != nil {
		return
	}

	l.mu.Lock()
	l.cache.Delete(ck)
	l.mu.Unlock()
}

// ClearAll empties the cache
func (l *Loader[K, V]) ClearAll() {
	l.mu.Lock()
	l.cache.Clear()
	l.mu.Unlock()
}

// Prime stores value for key if the key has no entry yet. It reports
// whether the value was stored; an existing entry is never replaced.
func (l *Loader[K, V]) Prime(key K, value V) bool {
	if !l.cacheEnabled {
		return false
	}

	ck, err := l.cacheKey(key)
	if err != nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cache.Get(ck); ok {
		return false
	}
	l.cache.Set(ck, settledFuture(value, nil))
	return true
}

// Flush ends the current window: the open batch, if any, is dispatched now
func (l *Loader[K, V]) Flush() {
	l.mu.Lock()
	b := l.current
	if b == nil {
		l.mu.Unlock()
		return
	}
	l.detach(b)
	l.mu.Unlock()

	go l.dispatch(b)
}

// cacheKey derives the canonical key. It must run before l.mu is taken:
// an unhashable canonical value would panic inside the cache or batch index.
func (l *Loader[K, V]) cacheKey(key K) (any, error) {
	ck, err := l.keyFn(key)
	if err != nil {
		return nil, err
	}
	if !hashable(ck) {
		return nil, fmt.Errorf("canonical key of type %T is not comparable", ck)
	}
	return ck, nil
}

// Name returns the loader name
func (l *Loader[K, V]) Name() string {
	return l.name
}
