// Package pool implements the fixed-size worker pool of §4.9: N goroutines
// draining a shared job queue, grounded on thread_pool.h's worker() loop
// (wait on the queue's condition variable, pop, run, repeat) but built on
// this module's own queue.Unbounded instead of std::queue plus a raw mutex
// and condition_variable.
package pool

import (
	"context"
	"sync"

	"github.com/concurro/coro/corolog"
	"github.com/concurro/coro/coroerr"
	"github.com/concurro/coro/future"
	"github.com/concurro/coro/queue"
	"github.com/concurro/coro/resume"
)

// Pool is a fixed-size worker pool. The zero value is not usable;
// construct with New.
type Pool struct {
	jobs   *queue.Unbounded[func()]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger corolog.Logger
}

// New starts a Pool configured by opts. Defaults to
// runtime.GOMAXPROCS(0) workers and a no-op logger.
func New(opts ...Option) *Pool {
	cfg, err := resolveOptions(opts)
	if err != nil {
		cfg = &config{logger: corolog.Noop}
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   queue.NewUnbounded[func()](),
		ctx:    ctx,
		cancel: cancel,
		logger: cfg.logger,
	}
	p.wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		job, err := p.jobs.Pop(p.ctx)
		if err != nil {
			return
		}
		job()
	}
}

// Submit enqueues h to run on whichever worker goroutine picks it up next.
// It satisfies resume.PoolSubmitter.
func (p *Pool) Submit(h func()) {
	p.jobs.Push(h)
}

// Policy returns a resume.Policy that posts resumed continuations to this
// pool.
func (p *Pool) Policy() resume.Policy {
	rt := &resume.ThreadPool{}
	rt.Initialize(p)
	return rt
}

// Run submits fn to the pool and returns a Future that resolves with its
// result. A job that is still queued when Shutdown runs it releases its
// promise unresolved instead of calling fn, so the Future resolves with
// coroerr.ErrCanceledAwait.
func Run[T any](p *Pool, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	fut, prom := future.New[T]()
	p.Submit(func() {
		if p.ctx.Err() != nil {
			prom.Release()
			return
		}
		v, err := fn(p.ctx)
		if err != nil {
			prom.Reject(err)
			return
		}
		prom.Resolve(v)
	})
	return fut
}

// RunDetached submits fn to the pool without tracking a result. Any
// returned or panicking error is logged at Warn level through the pool's
// configured logger (corolog.Noop by default) and, if onError is non-nil,
// also passed to it — matching the "observed once" model: an error nobody
// asked to be notified about still gets logged, never silently dropped.
func RunDetached(p *Pool, fn func(ctx context.Context) error, onError func(error)) {
	p.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				err := &coroerr.PanicError{Value: r}
				p.logger.Warning().Err(err).Log("coro/pool: detached task panicked")
				if onError != nil {
					onError(err)
				}
			}
		}()
		if err := fn(p.ctx); err != nil {
			p.logger.Warning().Err(err).Log("coro/pool: detached task returned an error")
			if onError != nil {
				onError(err)
			}
		}
	})
}

// Shutdown stops accepting new drains and waits for every worker to observe
// cancellation and exit. Jobs still queued at that point are never picked
// up by a worker again, so Shutdown drains and runs them itself: a Run job
// sees p.ctx already canceled and cancels its future immediately (see Run);
// a RunDetached job calls fn with the canceled context.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	for {
		job, ok := p.jobs.TryPop()
		if !ok {
			return
		}
		job()
	}
}
