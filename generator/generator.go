// Package generator implements §4.8: a goroutine that produces a sequence
// of values, driven by Next calls from either a synchronous caller or a
// coroutine-style await, modeled as a two-channel rendezvous between driver
// and body (grounded on tcard-coro's yield-channel pattern).
package generator

import (
	"context"
	"sync/atomic"

	"github.com/concurro/coro/coroerr"
)

// State is the generator's atomic lifecycle, tracked with CAS because
// driver and body goroutine run concurrently (possibly on different OS
// threads).
type State int32

const (
	NotStarted State = iota
	Running
	Ready
	Done
)

// Yield is the handle a generator body uses to produce values and receive
// driver-supplied arguments back.
type Yield[In, Out any] struct {
	out     chan<- Out
	in      <-chan In
	ctxDone <-chan struct{}
}

// Recv reads the next driver-supplied argument directly, without first
// yielding a value — used by a body that needs the argument passed to the
// very first Next call before it has anything to yield.
func (y *Yield[In, Out]) Recv(ctx context.Context) (In, error) {
	select {
	case in := <-y.in:
		return in, nil
	case <-ctx.Done():
		var zero In
		return zero, ctx.Err()
	}
}

// Push yields value to the driver and parks until the driver calls Next
// again, returning whatever argument the driver supplied (the zero value of
// In for the no-argument form). Returns an error if the surrounding context
// was canceled while parked.
func (y *Yield[In, Out]) Push(ctx context.Context, value Out) (In, error) {
	select {
	case y.out <- value:
	case <-ctx.Done():
		var zero In
		return zero, ctx.Err()
	}
	select {
	case in := <-y.in:
		return in, nil
	case <-ctx.Done():
		var zero In
		return zero, ctx.Err()
	}
}

// Generator drives a body function of the shape
// func(ctx, *Yield[In, Out]) (Out, error) across its lifecycle states.
type Generator[In, Out any] struct {
	state    atomic.Int32
	toBody   chan In
	fromBody chan Out
	done     chan struct{}
	cancel   context.CancelFunc
	result   Out
	err      error
}

// New starts a generator body on its own goroutine. The body starts running
// at once, before any Next call, and runs until its first Push or Recv (or
// to completion); the state stays NotStarted until the first Next call,
// which moves it to Running, unless the body has already finished. The
// ctx passed to body is owned by the Generator, not by any one Next call —
// it is canceled by Close, so a body written against its ctx parameter
// (rather than closing over a caller-supplied one, as scheduler.Interval
// does) still has a way to unwind when the driver abandons the generator.
func New[In, Out any](body func(ctx context.Context, y *Yield[In, Out]) (Out, error)) *Generator[In, Out] {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Generator[In, Out]{
		toBody:   make(chan In),
		fromBody: make(chan Out),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	g.state.Store(int32(NotStarted))

	go func() {
		y := &Yield[In, Out]{out: g.fromBody, in: g.toBody}
		result, err := body(ctx, y)
		g.result = result
		g.err = err
		g.state.Store(int32(Done))
		close(g.done)
	}()

	return g
}

// Close cancels the generator's own body context and releases it, for a
// driver that abandons the generator before it reaches Done. A body that
// only ever parks on an externally-supplied context (bypassing its ctx
// parameter, as scheduler.Interval's body does) is unaffected by Close.
func (g *Generator[In, Out]) Close() {
	g.cancel()
}

func (g *Generator[In, Out]) State() State {
	return State(g.state.Load())
}

// Next resumes the generator with arg and returns the next yielded value.
// If the generator has already finished, it returns the error the body
// returned or, if the body returned nil, ErrNoMoreValues.
func (g *Generator[In, Out]) Next(ctx context.Context, arg In) (Out, error) {
	var zero Out
	if g.State() == Done {
		if g.err != nil {
			return zero, g.err
		}
		return zero, coroerr.ErrNoMoreValues
	}
	g.state.Store(int32(Running))

	// Race: the body may be waiting on Recv/Push's argument side (accept
	// arg), or it may already be producing its next value (accept from
	// fromBody/done) without having consumed arg at all. Whichever
	// happens first wins; an arg the body never reads is simply dropped.
	select {
	case g.toBody <- arg:
		select {
		case v := <-g.fromBody:
			g.state.CompareAndSwap(int32(Running), int32(Ready))
			return v, nil
		case <-g.done:
			if g.err != nil {
				return zero, g.err
			}
			return g.result, nil
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	case v := <-g.fromBody:
		g.state.CompareAndSwap(int32(Running), int32(Ready))
		return v, nil
	case <-g.done:
		if g.err != nil {
			return zero, g.err
		}
		return g.result, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
