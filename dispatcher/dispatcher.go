// Package dispatcher implements the single-thread, goroutine-affine run
// loop of §4.10: a FIFO job queue plus a timer min-heap, both drained by
// exactly one goroutine. Directly adapted from loop.go's Loop — the timer
// heap shape is the same min-heap-by-deadline idea as loop.go's timerHeap —
// but with the teacher's inconsistent pushLocked/popLocked/lengthLocked
// ChunkedIngress calls (ingress.go defines no such methods) replaced by a
// queue this package actually keeps internally consistent, and with all FD
// polling dropped (see SPEC_FULL.md §11: no raw I/O surface in this spec).
package dispatcher

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/concurro/coro/coroerr"
)

type timerEntry struct {
	when     time.Time
	fn       func()
	canceled bool
	seq      uint64
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)        { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// Dispatcher is a single-thread run loop: Run must be called from the
// goroutine that is to act as its home thread, and every Schedule call
// (from any goroutine) posts a job onto that loop's FIFO queue.
type Dispatcher struct {
	mu         sync.Mutex
	jobs       []func()
	microtasks []func()
	timers     timerHeap
	stopped    bool
	seq        uint64
	wake       chan struct{}
	done       chan struct{}
	cfg        *config
}

// New returns a Dispatcher that is not yet running; call Run to start its
// loop.
func New(opts ...Option) *Dispatcher {
	cfg, err := resolveOptions(opts)
	if err != nil {
		// Options in this package never fail; kept fallible for symmetry
		// with the teacher's LoopOption contract.
		cfg = &config{}
	}
	return &Dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		cfg:  cfg,
	}
}

// ScheduleMicrotask posts h onto the loop's microtask queue, grounded on
// js.go's QueueMicrotask. Microtasks are drained once no job or due timer
// is ready and, with WithStrictMicrotaskOrdering(true), also after every
// job; a job that is already queued runs before them.
func (d *Dispatcher) ScheduleMicrotask(h func()) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return coroerr.Wrap("dispatcher: schedulemicrotask after stop", coroerr.ErrHomeThreadEnded)
	}
	d.microtasks = append(d.microtasks, h)
	d.mu.Unlock()
	d.notify()
	return nil
}

// Schedule posts h onto the loop's job queue. It satisfies
// resume.DispatcherTarget. Returns ErrHomeThreadEnded, wrapped, if the
// loop has already stopped.
func (d *Dispatcher) Schedule(h func()) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return coroerr.Wrap("dispatcher: schedule after stop", coroerr.ErrHomeThreadEnded)
	}
	d.jobs = append(d.jobs, h)
	d.mu.Unlock()
	d.notify()
	return nil
}

// ScheduleAt posts h to run at or after t. The returned cancel function
// prevents h from running if called before its deadline fires; it is a
// lazy cancellation (the heap entry is only actually dropped when the loop
// would otherwise have popped it).
func (d *Dispatcher) ScheduleAt(t time.Time, h func()) (cancel func(), err error) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil, coroerr.Wrap("dispatcher: scheduleat after stop", coroerr.ErrHomeThreadEnded)
	}
	d.seq++
	entry := &timerEntry{when: t, fn: h, seq: d.seq}
	heap.Push(&d.timers, entry)
	d.mu.Unlock()
	d.notify()
	return func() {
		d.mu.Lock()
		entry.canceled = true
		d.mu.Unlock()
	}, nil
}

// ScheduleAfter posts h to run after delay elapses.
func (d *Dispatcher) ScheduleAfter(delay time.Duration, h func()) (cancel func(), err error) {
	return d.ScheduleAt(time.Now().Add(delay), h)
}

func (d *Dispatcher) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run drains the job queue and timer heap until ctx is canceled. It must be
// called from the goroutine that owns this Dispatcher; it returns ctx.Err()
// on exit, and Schedule/ScheduleAt calls made after that point fail with
// ErrHomeThreadEnded.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	for {
		job, timeout, hasTimer := d.popReady()
		if job != nil {
			job()
			if d.cfg.strictMicrotaskOrdering {
				d.drainMicrotasks()
			}
			continue
		}
		// Both modes drain microtasks once nothing else is ready, immediately
		// before the loop would otherwise go to sleep; lenient mode drains
		// them only here.
		if d.drainMicrotasks() {
			continue
		}
		if err := ctx.Err(); err != nil {
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
			return err
		}
		if hasTimer {
			timer := time.NewTimer(timeout)
			select {
			case <-d.wake:
			case <-timer.C:
			case <-ctx.Done():
			}
			timer.Stop()
		} else {
			select {
			case <-d.wake:
			case <-ctx.Done():
			}
		}
	}
}

// drainMicrotasks runs every currently-queued microtask and reports whether
// any ran.
func (d *Dispatcher) drainMicrotasks() bool {
	d.mu.Lock()
	tasks := d.microtasks
	d.microtasks = nil
	d.mu.Unlock()
	for _, t := range tasks {
		t()
	}
	return len(tasks) > 0
}

func (d *Dispatcher) popReady() (job func(), timeout time.Duration, hasTimer bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	for len(d.timers) > 0 {
		next := d.timers[0]
		if next.canceled {
			heap.Pop(&d.timers)
			continue
		}
		if next.when.After(now) {
			break
		}
		heap.Pop(&d.timers)
		d.jobs = append(d.jobs, next.fn)
	}
	if len(d.jobs) > 0 {
		job = d.jobs[0]
		d.jobs = d.jobs[1:]
		return job, 0, false
	}
	if len(d.timers) > 0 {
		return nil, time.Until(d.timers[0].when), true
	}
	return nil, 0, false
}

// Done returns a channel closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
