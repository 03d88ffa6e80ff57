package dataloader

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Future is the handle returned by Load. It settles exactly once, and every
// caller that asked for the same key in the same batch holds the same Future.
type Future[V any] struct {
	done  chan struct{}
	value V
	err   error
}

func newFuture[V any]() *Future[V] {
	return &Future[V]{done: make(chan struct{})}
}

func settledFuture[V any](value V, err error) *Future[V] {
	f := newFuture[V]()
	f.settle(value, err)
	return f
}

// settle must be called exactly once
func (f *Future[V]) settle(value V, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done is closed once the future has settled
func (f *Future[V]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done. A done ctx only stops
// this caller from waiting; the fetch and other waiters are unaffected.
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Settled reports whether the future has settled without blocking
func (f *Future[V]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// ManyFuture is the handle returned by LoadMany
type ManyFuture[V any] struct {
	keys    []any
	futures []*Future[V]
}

// Futures returns the per-key futures in input order
func (m *ManyFuture[V]) Futures() []*Future[V] {
	return m.futures
}

// Wait returns the values in input order. If any key failed the returned
// error is a *multierror.Error holding one entry per failed key.
func (m *ManyFuture[V]) Wait(ctx context.Context) ([]V, error) {
	values := make([]V, len(m.futures))
	var result *multierror.Error
	for i, f := range m.futures {
		v, err := f.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result = multierror.Append(result, fmt.Errorf("load %v: %w", m.keys[i], err))
			continue
		}
		values[i] = v
	}
	if err := result.ErrorOrNil(); err != nil {
		return values, err
	}
	return values, nil
}
