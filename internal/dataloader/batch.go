package dataloader

import (
	"context"
	"time"
)

// batch accumulates the distinct keys of one dispatch unit
type batch[K comparable, V any] struct {
	ctx        context.Context // context of the load that opened the batch, without cancellation
	keys       []K             // distinct keys, first-occurrence order
	cacheKeys  []any           // canonical keys, aligned with keys
	futures    []*Future[V]    // one future per key, shared by all of its waiters
	index      map[any]int     // canonical key -> position
	timer      *time.Timer
	dispatched bool
}

// newBatch creates a new batch
func newBatch[K comparable, V any](ctx context.Context) *batch[K, V] {
	return &batch[K, V]{
		ctx:   context.WithoutCancel(ctx),
		index: make(map[any]int),
	}
}

// add adds key to the batch and returns the future for it.
// A key already present is folded into the existing waiter group.
func (b *batch[K, V]) add(cacheKey any, key K) *Future[V] {
	if i, ok := b.index[cacheKey]; ok {
		return b.futures[i]
	}

	f := newFuture[V]()
	b.index[cacheKey] = len(b.keys)
	b.keys = append(b.keys, key)
	b.cacheKeys = append(b.cacheKeys, cacheKey)
	b.futures = append(b.futures, f)
	return f
}

// size returns the number of distinct keys
func (b *batch[K, V]) size() int {
	return len(b.keys)
}

// close marks the batch as dispatched and stops its window timer
func (b *batch[K, V]) close() {
	b.dispatched = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
