// Package scheduler implements the wall-clock scheduler of §4.11: a timer
// min-heap plus a single coordinator goroutine, layered on a *pool.Pool so
// that fired callbacks resume on a worker rather than on the coordinator
// itself. Adapted from js.go's SetTimeout/SetInterval/timerHeap, generalized
// off a single owning event loop onto an arbitrary backing pool.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/concurro/coro/coroerr"
	"github.com/concurro/coro/generator"
	"github.com/concurro/coro/pool"
)

type schedEntry struct {
	id    uint64
	when  time.Time
	cb    func(error)
	fired bool
}

type schedHeap []*schedEntry

func (h schedHeap) Len() int            { return len(h) }
func (h schedHeap) Less(i, j int) bool  { return h[i].when.Before(h[j].when) }
func (h schedHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *schedHeap) Push(x any)         { *h = append(*h, x.(*schedEntry)) }
func (h *schedHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// Scheduler wakes tasks in non-decreasing deadline order, submitting each
// fired callback to its backing pool rather than running it on the
// coordinator goroutine.
type Scheduler struct {
	pool *pool.Pool

	mu     sync.Mutex
	heap   schedHeap
	byID   map[uint64]*schedEntry
	nextID uint64

	wake    chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// New starts a Scheduler backed by p.
func New(p *pool.Pool) *Scheduler {
	s := &Scheduler{
		pool:   p,
		byID:   make(map[uint64]*schedEntry),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.coordinate()
	return s
}

// Stop halts the coordinator goroutine. Entries already fired and submitted
// to the pool are unaffected; entries still pending are dropped.
func (s *Scheduler) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
	<-s.done
}

func (s *Scheduler) coordinate() {
	defer close(s.done)
	for {
		due, timeout, hasNext := s.popDue()
		for _, e := range due {
			cb := e.cb
			s.pool.Submit(func() { cb(nil) })
		}
		if len(due) > 0 {
			continue
		}
		select {
		case <-s.stopCh:
			return
		default:
		}
		if hasNext {
			timer := time.NewTimer(timeout)
			select {
			case <-s.wake:
			case <-timer.C:
			case <-s.stopCh:
				timer.Stop()
				return
			}
			timer.Stop()
		} else {
			select {
			case <-s.wake:
			case <-s.stopCh:
				return
			}
		}
	}
}

func (s *Scheduler) popDue() (due []*schedEntry, timeout time.Duration, hasNext bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for len(s.heap) > 0 {
		top := s.heap[0]
		if top.fired {
			heap.Pop(&s.heap)
			continue
		}
		if top.when.After(now) {
			break
		}
		heap.Pop(&s.heap)
		top.fired = true
		delete(s.byID, top.id)
		due = append(due, top)
	}
	if len(s.heap) > 0 {
		return due, time.Until(s.heap[0].when), true
	}
	return due, 0, false
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) scheduleAt(t time.Time, cb func(error)) uint64 {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	e := &schedEntry{id: id, when: t, cb: cb}
	s.byID[id] = e
	heap.Push(&s.heap, e)
	s.mu.Unlock()
	s.notify()
	return id
}

// Cancel resumes the awaiter registered under id with ErrCanceledAwait, if
// it has not already fired. Returns false if id is unknown or already
// fired.
func (s *Scheduler) Cancel(id uint64) bool {
	s.mu.Lock()
	e, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	e.fired = true
	delete(s.byID, id)
	s.mu.Unlock()

	cb := e.cb
	s.pool.Submit(func() { cb(coroerr.ErrCanceledAwait) })
	return true
}

// Sleep is the awaiter SleepUntil/SleepFor return: Wait parks the caller
// until the deadline fires or ctx is canceled.
type Sleep struct {
	id   uint64
	done chan struct{}
	err  error
	s    *Scheduler
}

// ID identifies this sleep for Scheduler.Cancel.
func (sl *Sleep) ID() uint64 { return sl.id }

// Wait parks until the sleep fires, is canceled via Scheduler.Cancel, or
// ctx is canceled (in which case the sleep is also canceled).
func (sl *Sleep) Wait(ctx context.Context) error {
	select {
	case <-sl.done:
		return sl.err
	case <-ctx.Done():
		sl.s.Cancel(sl.id)
		<-sl.done
		return ctx.Err()
	}
}

// SleepUntil returns a Sleep that fires at t.
func (s *Scheduler) SleepUntil(t time.Time) *Sleep {
	done := make(chan struct{})
	sl := &Sleep{done: done, s: s}
	sl.id = s.scheduleAt(t, func(err error) {
		sl.err = err
		close(done)
	})
	return sl
}

// SleepFor returns a Sleep that fires after d elapses.
func (s *Scheduler) SleepFor(d time.Duration) *Sleep {
	return s.SleepUntil(time.Now().Add(d))
}

// Interval returns a generator that yields the current time every d until
// ctx is canceled, adapted from js.go's SetInterval.
func (s *Scheduler) Interval(ctx context.Context, d time.Duration) *generator.Generator[struct{}, time.Time] {
	return generator.New(func(_ context.Context, y *generator.Yield[struct{}, time.Time]) (time.Time, error) {
		for {
			if err := s.SleepFor(d).Wait(ctx); err != nil {
				return time.Time{}, err
			}
			if _, err := y.Push(ctx, time.Now()); err != nil {
				return time.Time{}, err
			}
		}
	})
}
