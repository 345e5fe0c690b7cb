// Package future implements the reference-counted, single-write value cell
// described in §4.4 of the core specification: a Future is awaited by any
// number of consumers, resolved by one or more cooperating Promise handles,
// and wakes its consumers when the last Promise handle is released.
package future

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/concurro/coro/coroerr"
	"github.com/concurro/coro/waitlist"
)

type cell[T any] struct {
	mu        sync.Mutex
	ready     atomic.Bool
	canceled  atomic.Bool
	value     T
	err       error
	waiters   waitlist.List
	refcount  atomic.Int64
}

func (c *cell[T]) trySet(v T, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready.Load() {
		return false
	}
	c.value = v
	c.err = err
	c.ready.Store(true)
	return true
}

// finalize runs exactly once, when the refcount reaches zero: it wakes
// every registered consumer, carrying either the resolved value/error or,
// if nothing was ever resolved, ErrCanceledAwait.
func (c *cell[T]) finalize() {
	if !c.ready.Load() {
		c.canceled.Store(true)
	}
	c.waiters.DrainFinal(nil)
}

// Future is the consumer-facing half of the cell: read-only, shareable by
// any number of goroutines.
type Future[T any] struct {
	c *cell[T]
}

// Promise is a refcounted handle granting the right to resolve a Future.
// Resolve/Reject release the calling handle's own refcount share
// automatically (the common case is one Promise per Future, set once and
// implicitly dropped — this mirrors the original's RAII lifetime without
// requiring callers to remember a second Release call in that case).
// A cloned Promise still needs its own Release.
type Promise[T any] struct {
	c        *cell[T]
	released atomic.Bool
}

// New creates an empty Future/Promise pair. The Promise starts with a
// refcount of one.
func New[T any]() (*Future[T], *Promise[T]) {
	c := &cell[T]{}
	c.refcount.Store(1)
	p := &Promise[T]{c: c}
	// Safety net only: a Promise that is garbage collected without an
	// explicit Release/Resolve/Reject would otherwise wedge every
	// consumer forever. Relying on this finalizer firing promptly is a
	// bug in the caller, not a feature — see DESIGN.md.
	runtime.SetFinalizer(p, (*Promise[T]).Release)
	return &Future[T]{c: c}, p
}

// Clone increments the refcount and returns a new handle sharing the same
// cell. Each clone must be independently Released (or Resolved/Rejected).
// Cloning a handle that has already been Released is misuse — this handle's
// refcount share is gone, and the cell may have already finalized and woken
// every waiter with ErrCanceledAwait — so Clone returns an already-released
// no-op handle in that case instead of resurrecting a finalized cell.
func (p *Promise[T]) Clone() *Promise[T] {
	np := &Promise[T]{c: p.c}
	if p.released.Load() {
		np.released.Store(true)
		return np
	}
	p.c.refcount.Add(1)
	runtime.SetFinalizer(np, (*Promise[T]).Release)
	return np
}

// Resolve writes v to the cell if it has not already been resolved, then
// releases this handle's refcount share. Returns false if the cell was
// already resolved (the write does not overwrite).
func (p *Promise[T]) Resolve(v T) bool {
	ok := p.c.trySet(v, nil)
	p.Release()
	return ok
}

// Reject is Resolve's error-carrying counterpart.
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	ok := p.c.trySet(zero, err)
	p.Release()
	return ok
}

// Release decrements this handle's refcount share. Idempotent: a second
// Release on the same handle is a no-op. When the refcount reaches zero,
// every registered consumer is woken.
func (p *Promise[T]) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(p, nil)
	if p.c.refcount.Add(-1) == 0 {
		p.c.finalize()
	}
}

// Ready reports whether the future has a final outcome (resolved, rejected,
// or canceled) available without suspending.
func (f *Future[T]) Ready() bool {
	return f.c.ready.Load() || f.c.canceled.Load()
}

// Suspend registers resume to be called when the future reaches a final
// outcome. Returns false, without registering, if the outcome is already
// available (the caller should call Resume immediately instead).
func (f *Future[T]) Suspend(resume func()) bool {
	return f.c.waiters.Register(waitlist.NewNode(resume))
}

// Resume extracts the final outcome. Valid only after Ready reports true or
// after a registered resume callback has fired.
func (f *Future[T]) Resume() (T, error) {
	if f.c.canceled.Load() && !f.c.ready.Load() {
		var zero T
		return zero, coroerr.ErrCanceledAwait
	}
	return f.c.value, f.c.err
}

// TryGet is the non-blocking accessor: it returns the value, ok=true if a
// final outcome is already available (the returned error may itself be
// non-nil, e.g. ErrCanceledAwait), or ErrValueNotReady, ok=false if the
// caller must suspend.
func (f *Future[T]) TryGet() (T, error, bool) {
	if !f.Ready() {
		var zero T
		return zero, coroerr.ErrValueNotReady, false
	}
	v, err := f.Resume()
	return v, err, true
}

// Await suspends the calling goroutine until the future reaches a final
// outcome or ctx is done, whichever comes first.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if f.Ready() {
		return f.Resume()
	}
	done := make(chan struct{})
	if !f.Suspend(func() { close(done) }) {
		return f.Resume()
	}
	select {
	case <-done:
		return f.Resume()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait is Await without a context, for callers outside any cancellation
// scope.
func (f *Future[T]) Wait() (T, error) {
	return f.Await(context.Background())
}

var _ waitlist.Awaiter[int] = (*Future[int])(nil)
