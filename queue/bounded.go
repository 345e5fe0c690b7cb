package queue

import (
	"context"

	"github.com/concurro/coro/waitlist"
)

// Bounded is an MPMC FIFO queue with a fixed capacity: Push parks the
// caller while the queue is full, symmetric with Pop parking while it is
// empty. Built on Unbounded's storage plus a producer wait-list.
type Bounded[T any] struct {
	inner    Unbounded[T]
	capacity int
	pushers  waitlist.List
}

// NewBounded returns an empty Bounded queue with the given capacity.
// capacity must be at least 1.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{capacity: capacity}
}

// Len returns the current number of queued items.
func (q *Bounded[T]) Len() int {
	return q.inner.Len()
}

// TryPush appends v without blocking. ok is false if the queue was full.
func (q *Bounded[T]) TryPush(v T) (ok bool) {
	in := &q.inner
	in.mu.Lock()
	if in.length >= q.capacity {
		in.mu.Unlock()
		return false
	}
	// Append under the same critical section as the capacity check, so
	// concurrent producers cannot overshoot capacity.
	if in.tail == nil {
		in.tail = &chunk[T]{}
		in.head = in.tail
	}
	if in.tail.pos == chunkSize {
		nc := &chunk[T]{}
		in.tail.next = nc
		in.tail = nc
	}
	in.tail.items[in.tail.pos] = v
	in.tail.pos++
	in.length++
	in.mu.Unlock()
	in.waiters.DrainTransient(nil)
	return true
}

// Push appends v, parking the caller while the queue is at capacity.
func (q *Bounded[T]) Push(ctx context.Context, v T) error {
	for {
		if q.TryPush(v) {
			return nil
		}
		done := make(chan struct{})
		n := waitlist.NewNode(func() { close(done) })
		if !q.pushers.Register(n) {
			continue
		}
		if q.TryPush(v) {
			q.pushers.DrainTransient(n)
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TryPop removes and returns the head item without blocking.
func (q *Bounded[T]) TryPop() (T, bool) {
	v, ok := q.inner.TryPop()
	if ok {
		q.pushers.DrainTransient(nil)
	}
	return v, ok
}

// Pop removes and returns the head item, parking the caller while the
// queue is empty.
func (q *Bounded[T]) Pop(ctx context.Context) (T, error) {
	v, err := q.inner.Pop(ctx)
	if err == nil {
		q.pushers.DrainTransient(nil)
	}
	return v, err
}
