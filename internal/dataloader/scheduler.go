package dataloader

import (
	"context"
	"fmt"
	"time"
)

// enqueue adds key to the open batch, opening one if none is open.
// Must be called with l.mu held. It returns the batch it opened, if any, and
// the batch that reached MaxBatchSize and must be dispatched now, if any.
func (l *Loader[K, V]) enqueue(ctx context.Context, cacheKey any, key K) (f *Future[V], opened, full *batch[K, V]) {
	b := l.current
	if b == nil {
		b = newBatch[K, V](ctx)
		l.current = b
		opened = b

		if l.scheduleFn == nil && !l.manual {
			b.timer = time.AfterFunc(l.wait, func() {
				l.flushBatch(b)
			})
		}
	}

	f = b.add(cacheKey, key)

	if l.maxBatchSize > 0 && b.size() >= l.maxBatchSize {
		l.detach(b)
		full = b
	}

	return f, opened, full
}

// detach closes b for new keys so that the next miss opens a fresh batch.
// Must be called with l.mu held.
func (l *Loader[K, V]) detach(b *batch[K, V]) {
	if l.current == b {
		l.current = nil
	}
	b.close()
	l.inflight++
}

// flushBatch dispatches b if it is still the open batch
func (l *Loader[K, V]) flushBatch(b *batch[K, V]) {
	l.mu.Lock()
	if b.dispatched || l.current != b {
		l.mu.Unlock()
		return
	}
	l.detach(b)
	l.mu.Unlock()

	go l.dispatch(b)
}

// dispatch calls the fetch function once and distributes its results
func (l *Loader[K, V]) dispatch(b *batch[K, V]) {
	defer l.finish()

	start := time.Now()
	l.logger.Debug().
		Int("keys", b.size()).
		Msg("executing batch")

	results, err := l.fetch(b)
	if err != nil {
		l.fail(b, &FetchFunctionError{Err: err})
		return
	}

	if len(results) != b.size() {
		l.fail(b, &BatchSizeMismatchError{Expected: b.size(), Got: len(results)})
		return
	}

	var failed int
	for i, f := range b.futures {
		var zero V
		r := results[i]
		switch {
		case r == nil:
			f.settle(zero, nil)
		case r.Error != nil:
			failed++
			f.settle(zero, &PerKeyError{Key: b.keys[i], Err: r.Error})
		default:
			f.settle(r.Data, nil)
		}
	}

	l.logger.Debug().
		Int("keys", b.size()).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("batch completed")
}

// fetch runs the batch function on its own goroutine so that a panic or a
// batch timeout is turned into an error for the whole batch.
func (l *Loader[K, V]) fetch(b *batch[K, V]) ([]*Result[V], error) {
	ctx := b.ctx
	if l.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.batchTimeout)
		defer cancel()
	}

	type outcome struct {
		results []*Result[V]
		err     error
	}

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("panic during fetch: %v", r)}
			}
		}()
		results, err := l.batchFn(ctx, b.keys)
		ch <- outcome{results: results, err: err}
	}()

	select {
	case o := <-ch:
		return o.results, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fail rejects every waiter of b with err. Cache entries still pointing at
// b's futures are removed first so that a retry refetches.
func (l *Loader[K, V]) fail(b *batch[K, V], err error) {
	l.logger.Error().
		Err(err).
		Int("keys", b.size()).
		Msg("batch failed")

	l.mu.Lock()
	for i, ck := range b.cacheKeys {
		if cached, ok := l.cache.Get(ck); ok && cached == b.futures[i] {
			l.cache.Delete(ck)
		}
	}
	l.mu.Unlock()

	var zero V
	for _, f := range b.futures {
		f.settle(zero, err)
	}
}

// finish marks one dispatch as complete
func (l *Loader[K, V]) finish() {
	l.mu.Lock()
	l.inflight--
	l.mu.Unlock()
}

// State returns the scheduler state
func (l *Loader[K, V]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.current != nil:
		return StateAccumulating
	case l.inflight > 0:
		return StateDispatching
	default:
		return StateIdle
	}
}
