package resolver

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"nplusone/internal/dataloader"
)

type batchLog struct {
	mu    sync.Mutex
	calls [][]int
}

func (b *batchLog) fn(_ context.Context, keys []int) ([]*dataloader.Result[string], error) {
	b.mu.Lock()
	b.calls = append(b.calls, append([]int(nil), keys...))
	b.mu.Unlock()

	results := make([]*dataloader.Result[string], len(keys))
	for i, k := range keys {
		results[i] = &dataloader.Result[string]{Data: fmt.Sprintf("v%d", k)}
	}
	return results, nil
}

func (b *batchLog) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func TestWindow_FlushesWhenAllParticipantsWait(t *testing.T) {
	log := &batchLog{}
	l, err := dataloader.New(log.fn, dataloader.WithManualDispatch[int, string]())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := NewWindow(l.Flush)
	ctx := context.Background()

	values := make([]string, 5)
	var g errgroup.Group
	for i := range values {
		i := i
		w.Go(&g, func() error {
			v, err := Await(ctx, w, l.Load(ctx, i%3))
			values[i] = v
			return err
		})
	}
	if err := w.Wait(&g); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if log.count() != 1 {
		t.Errorf("batch calls = %d, want 1", log.count())
	}
	for i, v := range values {
		if want := fmt.Sprintf("v%d", i%3); v != want {
			t.Errorf("values[%d] = %s, want %s", i, v, want)
		}
	}
	if w.Running() != 1 {
		t.Errorf("Running = %d, want 1", w.Running())
	}
}

func TestWindow_NestedPhases(t *testing.T) {
	log := &batchLog{}
	l, err := dataloader.New(log.fn, dataloader.WithManualDispatch[int, string]())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := NewWindow(l.Flush)
	ctx := context.Background()

	// each participant loads once, then loads again based on the first result
	var g errgroup.Group
	for i := 0; i < 3; i++ {
		i := i
		w.Go(&g, func() error {
			if _, err := Await(ctx, w, l.Load(ctx, i)); err != nil {
				return err
			}
			var inner errgroup.Group
			w.Go(&inner, func() error {
				_, err := Await(ctx, w, l.Load(ctx, 10+i))
				return err
			})
			return w.Wait(&inner)
		})
	}
	if err := w.Wait(&g); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	// the first phase always coalesces; later loads may split depending on wake order
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.calls) == 0 || len(log.calls[0]) != 3 {
		t.Fatalf("calls = %v, want first batch of 3 keys", log.calls)
	}
	total := 0
	for _, c := range log.calls {
		total += len(c)
	}
	if total != 6 {
		t.Errorf("keys fetched = %d, want 6", total)
	}
}

func TestAwait_SettledFutureKeepsParticipant(t *testing.T) {
	log := &batchLog{}
	l, err := dataloader.New(log.fn, dataloader.WithManualDispatch[int, string]())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	flushes := 0
	w := NewWindow(func() { flushes++ })

	l.Prime(1, "primed")
	v, err := Await(context.Background(), w, l.Load(context.Background(), 1))
	if err != nil || v != "primed" {
		t.Fatalf("Await = %s, %v", v, err)
	}
	if flushes != 0 {
		t.Errorf("flushes = %d, want 0", flushes)
	}
}

func TestAwait_CallerCancellation(t *testing.T) {
	log := &batchLog{}
	l, err := dataloader.New(log.fn, dataloader.WithManualDispatch[int, string]())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// a window that never flushes
	w := NewWindow(func() {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Await(ctx, w, l.Load(context.Background(), 1)); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if w.Running() != 1 {
		t.Errorf("Running = %d, want 1", w.Running())
	}
}
