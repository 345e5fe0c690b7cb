package syncx

import (
	"context"
	"sync/atomic"
)

type bnode struct {
	next   *bnode
	resume func()
}

// Barrier blocks arriving coroutines until a configured party count has all
// arrived, or until it is released manually, grounded on barrier.h's
// subscribe_awaiter: a lock-free chain that counts waiters on the fly and
// resumes the whole chain the instant the target is met — including the
// arrival that completes it, which proceeds without ever blocking.
//
// A Barrier is naturally reusable: once a round releases, the chain is back
// to empty and the next Arrive starts counting again.
type Barrier struct {
	target  int
	waiting atomic.Pointer[bnode]
}

// NewBarrier returns a Barrier that auto-releases once count coroutines are
// parked in it. count <= 0 means manual release only.
func NewBarrier(count int) *Barrier {
	return &Barrier{target: count}
}

// Arrive parks the caller until the barrier releases, either automatically
// (party count reached) or manually via Release.
func (b *Barrier) Arrive(ctx context.Context) error {
	done := make(chan struct{})
	n := &bnode{resume: func() { close(done) }}
	b.subscribe(n)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release wakes every coroutine currently parked in the barrier, regardless
// of the configured party count. A release with nobody waiting is a no-op.
func (b *Barrier) Release() {
	x := b.waiting.Swap(nil)
	resumeBChain(x)
}

func (b *Barrier) subscribe(n *bnode) {
	x := b.waiting.Swap(nil)
	cnt := chainLen(x)
	if b.target <= 0 || cnt+1 < b.target {
		n.next = x
		prev := b.waiting.Swap(n)
		for prev != nil {
			c := prev
			prev = c.next
			b.subscribe(c)
		}
	} else {
		resumeBChain(x)
		n.resume()
	}
}

func chainLen(x *bnode) int {
	n := 0
	for ; x != nil; x = x.next {
		n++
	}
	return n
}

func resumeBChain(x *bnode) {
	for x != nil {
		next := x.next
		x.resume()
		x = next
	}
}
