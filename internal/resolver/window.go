package resolver

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"nplusone/internal/dataloader"
)

// Window decides when an operation's loaders flush. It counts the
// goroutines still working on the operation; once every one of them is
// blocked on a loader result or on its children, nothing else can join the
// open batches and the window ends.
type Window struct {
	mu      sync.Mutex
	running int
	flush   func()
}

// NewWindow creates a Window whose calling goroutine counts as running
func NewWindow(flush func()) *Window {
	return &Window{
		running: 1,
		flush:   flush,
	}
}

// Go runs fn on g as a new participant of the window
func (w *Window) Go(g *errgroup.Group, fn func() error) {
	w.enter()
	g.Go(func() error {
		defer w.leave()
		return fn()
	})
}

// Wait blocks until every goroutine started on g has returned
func (w *Window) Wait(g *errgroup.Group) error {
	w.leave()
	defer w.enter()
	return g.Wait()
}

// Running returns the number of participants not blocked on a result
func (w *Window) Running() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Window) enter() {
	w.mu.Lock()
	w.running++
	w.mu.Unlock()
}

func (w *Window) leave() {
	w.mu.Lock()
	w.running--
	idle := w.running == 0
	w.mu.Unlock()

	if idle {
		w.flush()
	}
}

// Await waits for f while letting the window end without this goroutine
func Await[V any](ctx context.Context, w *Window, f *dataloader.Future[V]) (V, error) {
	if f.Settled() {
		return f.Wait(ctx)
	}

	w.leave()
	defer w.enter()
	return f.Wait(ctx)
}

// AwaitMany is Await for a LoadMany result
func AwaitMany[V any](ctx context.Context, w *Window, m *dataloader.ManyFuture[V]) ([]V, error) {
	w.leave()
	defer w.enter()
	return m.Wait(ctx)
}
