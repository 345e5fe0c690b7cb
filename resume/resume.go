// Package resume implements the resumption policies described in the core
// specification: the decision of *where* a parked continuation actually
// runs once the thing it was waiting on becomes ready.
package resume

import (
	"sync"

	"github.com/concurro/coro/coroerr"
)

// Handle is a continuation: a callback the holder of a resumption policy
// invokes to make a parked goroutine proceed. It corresponds to the
// original's coroutine handle.
type Handle = func()

// InitialSuspend tells a task's goroutine launcher whether and how its body
// should start.
type InitialSuspend int

const (
	// InitialSuspendNone starts the body immediately, without going
	// through the policy (used by the Immediate policy).
	InitialSuspendNone InitialSuspend = iota
	// InitialSuspendQueued starts the body on the policy's own queued
	// drainer rather than inline on the caller.
	InitialSuspendQueued
	// InitialSuspendPending defers starting the body until the policy is
	// initialized (ThreadPool, before Initialize is called).
	InitialSuspendPending
)

// Policy is the scheduling-sink contract every resumption policy satisfies.
type Policy interface {
	// Resume makes h eventually run, per the policy's placement rule.
	Resume(h Handle)
	// InitialSuspend reports how a task's body should start under this
	// policy.
	InitialSuspend() InitialSuspend
}

// Immediate resumes synchronously on the calling goroutine: no indirection,
// no queueing.
type Immediate struct{}

func (Immediate) Resume(h Handle)            { h() }
func (Immediate) InitialSuspend() InitialSuspend { return InitialSuspendNone }

// Queued is the default policy: a FIFO queue drained by whichever goroutine
// finds it idle. The first Resume on an idle Queued starts a draining loop
// that runs until the queue empties; a Resume issued from inside that loop
// (a "nested" resume, the continuation itself resuming something else) is
// merely appended and picked up by the same drain — this prevents unbounded
// goroutine-stack growth from chained continuations, grounded on the
// teacher's auxJobs double-buffer drain in Loop.runAux.
type Queued struct {
	mu       sync.Mutex
	q        []Handle
	draining bool
}

func (p *Queued) Resume(h Handle) {
	p.mu.Lock()
	p.q = append(p.q, h)
	if p.draining {
		p.mu.Unlock()
		return
	}
	p.draining = true
	p.mu.Unlock()
	p.drain()
}

func (p *Queued) drain() {
	for {
		p.mu.Lock()
		if len(p.q) == 0 {
			p.draining = false
			p.mu.Unlock()
			return
		}
		h := p.q[0]
		p.q = p.q[1:]
		p.mu.Unlock()
		h()
	}
}

func (p *Queued) InitialSuspend() InitialSuspend { return InitialSuspendQueued }

// PoolSubmitter is the capability a ThreadPool policy needs from whatever
// backs it; *pool.Pool satisfies it without resume importing pool (which
// would cycle back, since pool imports resume for Pool.Policy).
type PoolSubmitter interface {
	Submit(h func())
}

// ThreadPool posts resumed handles to a pool, which may not exist yet at
// construction time: a task declared with this policy parks until
// Initialize is called with the backing pool, per §4.3.
type ThreadPool struct {
	mu      sync.Mutex
	pool    PoolSubmitter
	pending []Handle
}

// Initialize binds the policy to a pool and flushes anything queued while
// uninitialized. Calling it twice is a no-op after the first call wins.
func (p *ThreadPool) Initialize(ps PoolSubmitter) {
	p.mu.Lock()
	if p.pool != nil {
		p.mu.Unlock()
		return
	}
	p.pool = ps
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, h := range pending {
		ps.Submit(h)
	}
}

func (p *ThreadPool) Resume(h Handle) {
	p.mu.Lock()
	if p.pool == nil {
		p.pending = append(p.pending, h)
		p.mu.Unlock()
		return
	}
	pool := p.pool
	p.mu.Unlock()
	pool.Submit(h)
}

func (p *ThreadPool) InitialSuspend() InitialSuspend { return InitialSuspendPending }

// DispatcherTarget is the capability a Dispatcher policy needs: schedule a
// handle onto the dispatcher's run loop, or report that the dispatcher has
// already stopped.
type DispatcherTarget interface {
	Schedule(h func()) error
}

// Dispatcher posts resumed handles onto a specific dispatcher's run loop.
// It records its target at construction (mirroring the original's weak
// reference, but as a plain pointer — the dispatcher's own stopped-state
// check, not pointer liveness, is what decides ErrHomeThreadEnded) and
// reports scheduling failure through TryResume so callers that need to
// react to a dead dispatcher (task.Task under this policy) can do so.
type Dispatcher struct {
	target DispatcherTarget
}

// NewDispatcher binds a Dispatcher policy to its target run loop.
func NewDispatcher(target DispatcherTarget) *Dispatcher {
	return &Dispatcher{target: target}
}

func (p *Dispatcher) Resume(h Handle) {
	_ = p.TryResume(h)
}

// TryResume is Resume's fallible form: it returns ErrHomeThreadEnded,
// wrapped, if the target dispatcher has stopped and h was not scheduled.
func (p *Dispatcher) TryResume(h Handle) error {
	if err := p.target.Schedule(h); err != nil {
		return coroerr.Wrap("resume: dispatcher target", coroerr.ErrHomeThreadEnded)
	}
	return nil
}

func (p *Dispatcher) InitialSuspend() InitialSuspend { return InitialSuspendQueued }
