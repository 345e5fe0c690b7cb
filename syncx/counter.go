package syncx

import (
	"context"
	"sync/atomic"
)

// Counter is a coroutine-synchronizing up/down counter, grounded on
// counter.h: any coroutine awaiting it suspends while the value is
// positive, and the whole wait chain resumes the instant it reaches zero
// or below. A Counter is reusable — incrementing back above zero and then
// decrementing to zero again parks and releases waiters on each pass.
type Counter struct {
	count   atomic.Int64
	waiting atomic.Pointer[bnode]
}

// NewCounter initializes a Counter to the given value.
func NewCounter(initial int64) *Counter {
	c := &Counter{}
	c.count.Store(initial)
	return c
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	return c.count.Load()
}

// Increment adds one to the count and returns the new value.
func (c *Counter) Increment() int64 {
	return c.count.Add(1)
}

// Decrement subtracts one from the count, waking all waiters if the new
// value is zero or below.
func (c *Counter) Decrement() int64 {
	r := c.count.Add(-1)
	if r <= 0 {
		c.drain()
	}
	return r
}

// SetValue sets the count directly, waking all waiters if the new value is
// zero or below.
func (c *Counter) SetValue(val int64) {
	diff := val - c.count.Load()
	if c.count.Add(diff) <= 0 {
		c.drain()
	}
}

// Await parks the caller until the counter reaches zero or below. It
// returns immediately, without suspending, if the counter is already there.
func (c *Counter) Await(ctx context.Context) error {
	if c.count.Load() <= 0 {
		return nil
	}
	done := make(chan struct{})
	n := &bnode{resume: func() { close(done) }}
	for {
		old := c.waiting.Load()
		n.next = old
		if c.waiting.CompareAndSwap(old, n) {
			break
		}
	}
	// Recheck: a Decrement/SetValue may have already fired its drain before
	// our registration was visible, missing us.
	if c.count.Load() <= 0 {
		c.drain()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Counter) drain() {
	x := c.waiting.Swap(nil)
	resumeBChain(x)
}
