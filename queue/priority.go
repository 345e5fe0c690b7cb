package queue

import (
	"container/heap"
	"context"
	"sync"

	"github.com/concurro/coro/waitlist"
)

// Priority is an MPMC queue that always pops its least element first (by
// the supplied less function), grounded on priority_queue.h's pop_item:
// top-then-pop collapsed into a single operation — here, collapsed into
// TryPop/Pop returning the value directly instead of exposing a separate
// Top accessor.
type Priority[T any] struct {
	mu      sync.Mutex
	h       priorityHeap[T]
	waiters waitlist.List
}

type priorityHeap[T any] struct {
	items []T
	less  func(a, b T) bool
}

func (h *priorityHeap[T]) Len() int            { return len(h.items) }
func (h *priorityHeap[T]) Less(i, j int) bool  { return h.less(h.items[i], h.items[j]) }
func (h *priorityHeap[T]) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *priorityHeap[T]) Push(x interface{})  { h.items = append(h.items, x.(T)) }
func (h *priorityHeap[T]) Pop() interface{} {
	old := h.items
	n := len(old)
	v := old[n-1]
	var zero T
	old[n-1] = zero
	h.items = old[:n-1]
	return v
}

// NewPriority returns an empty Priority queue ordered by less(a, b) meaning
// "a should pop before b".
func NewPriority[T any](less func(a, b T) bool) *Priority[T] {
	return &Priority[T]{h: priorityHeap[T]{less: less}}
}

// Len returns the current number of queued items.
func (q *Priority[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.h.Len()
}

// Push inserts v and wakes every parked consumer; they race to pop it, and
// the ones that find the queue empty park again.
func (q *Priority[T]) Push(v T) {
	q.mu.Lock()
	heap.Push(&q.h, v)
	q.mu.Unlock()
	q.waiters.DrainTransient(nil)
}

// TryPop removes and returns the least item without blocking.
func (q *Priority[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.h).(T), true
}

// Pop removes and returns the least item, parking the caller while the
// queue is empty.
func (q *Priority[T]) Pop(ctx context.Context) (T, error) {
	for {
		if v, ok := q.TryPop(); ok {
			return v, nil
		}
		done := make(chan struct{})
		n := waitlist.NewNode(func() { close(done) })
		if !q.waiters.Register(n) {
			continue
		}
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
