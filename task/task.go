// Package task implements the coroutine return types of §4.3/§4.4: a Task
// owns a future and a goroutine running its body, plugged into a
// resumption policy that decides where and when the body is started. The
// task's waiters are woken directly by its future, not through the policy.
// A Lazy task is the same shape with its goroutine deferred to the first
// Await.
package task

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/concurro/coro/coroerr"
	"github.com/concurro/coro/future"
	"github.com/concurro/coro/resume"
)

// Task is a goroutine-backed handle pairing a future with a resumption
// policy. Any number of goroutines may Await the same Task.
type Task[T any] struct {
	fut       *future.Future[T]
	policy    resume.Policy
	startOnce sync.Once
	start     func()
}

func spawn[T any](policy resume.Policy, lazy bool, body func(ctx context.Context) (T, error)) *Task[T] {
	fut, prom := future.New[T]()
	t := &Task[T]{fut: fut, policy: policy}

	runBody := func() {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					prom.Reject(&coroerr.PanicError{Value: r, Stack: debug.Stack()})
				}
			}()
			v, err := body(context.Background())
			if err != nil {
				prom.Reject(err)
			} else {
				prom.Resolve(v)
			}
		}()
	}

	t.start = func() {
		switch policy.InitialSuspend() {
		case resume.InitialSuspendNone:
			runBody()
		default:
			// Queued and ThreadPool (pending) policies place even the
			// initial start under the policy: a ThreadPool-policy task
			// will not start its body until Initialize binds a pool, and
			// a Queued/Dispatcher-policy task starts on that policy's
			// own drain/run-loop rather than inline on the caller.
			if dp, ok := policy.(*resume.Dispatcher); ok {
				// A stopped dispatcher never runs the body; the task
				// resolves with ErrHomeThreadEnded instead.
				if err := dp.TryResume(runBody); err != nil {
					prom.Reject(err)
				}
				return
			}
			policy.Resume(runBody)
		}
	}

	if !lazy {
		t.startOnce.Do(t.start)
	}
	return t
}

// Go creates a Task whose body starts immediately (subject to the policy's
// InitialSuspend rule).
func Go[T any](policy resume.Policy, body func(ctx context.Context) (T, error)) *Task[T] {
	return spawn(policy, false, body)
}

// GoLazy creates a Lazy task: its body does not start until the first
// Await.
func GoLazy[T any](policy resume.Policy, body func(ctx context.Context) (T, error)) *Task[T] {
	return spawn(policy, true, body)
}

// Await starts the task's body if it has not started yet (a no-op for an
// already-started Task), then suspends until the body completes or ctx is
// done.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	t.startOnce.Do(t.start)
	return t.fut.Await(ctx)
}

// Future exposes the underlying future, e.g. for fan-in combinators or for
// wrapping under a foreign resumption policy via AwaitTransform.
func (t *Task[T]) Future() *future.Future[T] {
	return t.fut
}

// AwaitTransform wraps a foreign awaiter so that its resumption happens
// under this task's policy rather than the awaiter's own default — the
// hook named in §4.3 for awaiting across policies.
func AwaitTransform[T any](policy resume.Policy, aw interface {
	Ready() bool
	Suspend(func()) bool
	Resume() (T, error)
}) (T, error) {
	if aw.Ready() {
		return aw.Resume()
	}
	done := make(chan struct{})
	if !aw.Suspend(func() { policy.Resume(func() { close(done) }) }) {
		return aw.Resume()
	}
	<-done
	return aw.Resume()
}

// GoDetached runs body fire-and-forget: nothing observes its Task, so any
// returned error (including a recovered panic) is only surfaced via onError
// if provided.
func GoDetached[T any](policy resume.Policy, onError func(error), body func(ctx context.Context) (T, error)) {
	t := Go(policy, body)
	if onError == nil {
		return
	}
	go func() {
		_, err := t.Await(context.Background())
		if err != nil {
			onError(err)
		}
	}()
}
