package dataloader

import (
	"context"
	"fmt"
)

// Result is one positional element returned by a BatchFunc.
// A non-nil Error marks only this key as failed. A nil *Result settles the
// key with the zero value.
type Result[V any] struct {
	Data  V
	Error error
}

// BatchFunc fetches the values for keys. keys are distinct and must not be
// modified. The returned slice must be positionally aligned with keys.
// A non-nil error fails every key of the batch.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]*Result[V], error)

// KeyFunc maps a key to the canonical value used for deduplication and
// caching. Two keys are the same key when their canonical values are equal.
type KeyFunc[K comparable] func(key K) (any, error)

// ScheduleFunc is called once when a batch opens. It must arrange for
// dispatch to be called at the end of the current window; calling it more
// than once is harmless.
type ScheduleFunc func(dispatch func())

// State is the scheduler state of a Loader
type State int

const (
	// StateIdle - no open batch and nothing in flight
	StateIdle State = iota
	// StateAccumulating - a batch is open and collecting keys
	StateAccumulating
	// StateDispatching - no open batch, at least one fetch is outstanding
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateDispatching:
		return "dispatching"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// defaultKeyFunc uses the key itself. Interface-typed keys holding
// uncomparable dynamic values (slices, maps, funcs) are rejected here rather
// than panicking inside the cache.
func defaultKeyFunc[K comparable](key K) (any, error) {
	ck := any(key)
	if !hashable(ck) {
		return nil, fmt.Errorf("key of type %T is not comparable", key)
	}
	return ck, nil
}

func hashable(v any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	m := map[any]struct{}{}
	m[v] = struct{}{}
	return len(m) == 1
}
