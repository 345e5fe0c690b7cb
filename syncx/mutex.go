// Package syncx implements the wait-list-specialized synchronization
// primitives of §4.5/§4.6: a FIFO-fair coroutine mutex, a barrier, a
// counter, and a condition variable.
package syncx

import (
	"context"
	"sync/atomic"
)

type mnode struct {
	next   atomic.Pointer[mnode]
	resume func()
}

// lockedSentinel is a distinguished pointer meaning "locked, no queued
// waiters" — distinct from a real waiter node, never dereferenced.
var lockedSentinel = &mnode{}

// Mutex is a coroutine mutex with FIFO wakeup order among contended
// waiters, despite lock-free LIFO registration, per §4.5: an owner-private
// queue absorbs the registration chain and reverses it to FIFO once per
// drain, without ever taking a lock on the mutex's own metadata.
type Mutex struct {
	requests atomic.Pointer[mnode]
	queue    []*mnode
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{}
}

// TryLock acquires the mutex only if it is currently unlocked, without
// suspending.
func (m *Mutex) TryLock() bool {
	return m.requests.CompareAndSwap(nil, lockedSentinel)
}

// Lock acquires the mutex, suspending the caller if it is held. Acquisition
// is FIFO with respect to the order in which waiters register (§8, property
// 2) — not the order in which Lock was called, since registration under
// contention can itself race.
//
// Lock does not support mid-wait cancellation once the caller has
// registered as a waiter (matching the behavior of sync.Mutex.Lock, and the
// original specification, which does not describe a cancelable lock path);
// ctx is only checked before attempting to acquire.
func (m *Mutex) Lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.TryLock() {
		return nil
	}
	done := make(chan struct{})
	n := &mnode{resume: func() { close(done) }}
	for {
		old := m.requests.Load()
		n.next.Store(old)
		if m.requests.CompareAndSwap(old, n) {
			break
		}
	}
	<-done
	return nil
}

// Unlock releases the mutex, waking the oldest queued waiter if any.
// Calling Unlock while not holding the mutex is a misuse and will corrupt
// the lock state; callers must pair every successful Lock/TryLock with
// exactly one Unlock.
func (m *Mutex) Unlock() {
	for {
		if len(m.queue) > 0 {
			next := m.queue[0]
			m.queue = m.queue[1:]
			next.resume()
			return
		}
		if m.requests.CompareAndSwap(lockedSentinel, nil) {
			return
		}

		chain := m.requests.Swap(lockedSentinel)
		var waiters []*mnode
		for n := chain; n != nil && n != lockedSentinel; n = n.next.Load() {
			waiters = append(waiters, n)
		}
		// chain is LIFO (newest first); reverse in place for FIFO order.
		for i, j := 0, len(waiters)-1; i < j; i, j = i+1, j-1 {
			waiters[i], waiters[j] = waiters[j], waiters[i]
		}
		m.queue = waiters
		// loop back to step 1, which now has the reversed chain to drain.
	}
}
