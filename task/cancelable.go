package task

import (
	"context"

	"github.com/concurro/coro/resume"
)

// GoCancelable supplements the distilled spec with the cancel-flag task
// wrapper §5 describes ("a task wrapper exists that installs a cancel flag
// checked at each await boundary"), grounded on the teacher's
// AbortController/AbortSignal (abort.go) but expressed with context.Context
// rather than a bespoke signal type, since every await boundary in this
// package (future.Await, queue pops, scheduler sleeps) already accepts a
// ctx and already treats ctx.Err() as the await-boundary check the original
// performs manually.
//
// The returned cancel function cancels the body's context with reason;
// any ctx-taking await the body is parked in at that moment returns
// ctx.Err() (context.Canceled) without completing the awaited operation,
// and the body can read reason through context.Cause(ctx).
func GoCancelable[T any](ctx context.Context, policy resume.Policy, body func(ctx context.Context) (T, error)) (*Task[T], context.CancelCauseFunc) {
	cctx, cancel := context.WithCancelCause(ctx)
	t := Go(policy, func(context.Context) (T, error) {
		return body(cctx)
	})
	return t, cancel
}
