// Package queue implements the §4.7 MPMC queues: an unbounded chunked-link
// queue, a bounded variant with producer-side backpressure, and a priority
// variant — all consumer-synchronized through a waitlist.List rather than
// the teacher's external-mutex-required ChunkedIngress.
package queue

import (
	"context"
	"sync"

	"github.com/concurro/coro/waitlist"
)

const chunkSize = 128

type chunk[T any] struct {
	items   [chunkSize]T
	next    *chunk[T]
	readPos int
	pos     int
}

// Unbounded is an MPMC FIFO queue with no capacity limit, grounded on
// ChunkedIngress's chunked-linked-list layout — generalized to generic
// values and made internally thread-safe (the teacher's ChunkedIngress
// requires an external mutex; this one owns its own).
type Unbounded[T any] struct {
	mu      sync.Mutex
	head    *chunk[T]
	tail    *chunk[T]
	length  int
	waiters waitlist.List
}

// NewUnbounded returns an empty Unbounded queue.
func NewUnbounded[T any]() *Unbounded[T] {
	return &Unbounded[T]{}
}

// Push appends v and wakes every parked consumer; they race to pop it, and
// the ones that find the queue empty park again.
func (q *Unbounded[T]) Push(v T) {
	q.mu.Lock()
	if q.tail == nil {
		q.tail = &chunk[T]{}
		q.head = q.tail
	}
	if q.tail.pos == chunkSize {
		nc := &chunk[T]{}
		q.tail.next = nc
		q.tail = nc
	}
	q.tail.items[q.tail.pos] = v
	q.tail.pos++
	q.length++
	q.mu.Unlock()

	q.waiters.DrainTransient(nil)
}

// Len returns the current number of queued items.
func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}

// TryPop removes and returns the head item without blocking. ok is false if
// the queue was empty.
func (q *Unbounded[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *Unbounded[T]) popLocked() (v T, ok bool) {
	if q.head == nil || q.head.readPos >= q.head.pos {
		if q.head != nil && q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
		}
		var zero T
		return zero, false
	}
	item := q.head.items[q.head.readPos]
	var zero T
	q.head.items[q.head.readPos] = zero
	q.head.readPos++
	q.length--
	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos = 0
			q.head.readPos = 0
		} else {
			q.head = q.head.next
		}
	}
	return item, true
}

// Pop removes and returns the head item, parking the caller if the queue is
// currently empty.
func (q *Unbounded[T]) Pop(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryPop(); ok {
			return v, nil
		}
		done := make(chan struct{})
		n := waitlist.NewNode(func() { close(done) })
		if !q.waiters.Register(n) {
			continue
		}
		// Recheck: a Push between the failed TryPop and successful
		// registration would otherwise be missed.
		if v, ok := q.TryPop(); ok {
			q.waiters.DrainTransient(n)
			return v, nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
