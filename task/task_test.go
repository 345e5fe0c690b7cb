package task_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/resume"
	"github.com/concurro/coro/task"
)

func TestGoRunsImmediately(t *testing.T) {
	tk := task.Go(resume.Immediate{}, func(ctx context.Context) (int, error) {
		return 21 * 2, nil
	})
	v, err := tk.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestGoLazyDoesNotStartUntilAwait(t *testing.T) {
	started := make(chan struct{}, 1)
	tk := task.GoLazy(resume.Immediate{}, func(ctx context.Context) (int, error) {
		started <- struct{}{}
		return 1, nil
	})

	select {
	case <-started:
		t.Fatal("lazy task started before Await")
	case <-time.After(20 * time.Millisecond):
	}

	v, err := tk.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)
	<-started
}

func TestPanicInBodyIsCapturedAsError(t *testing.T) {
	tk := task.Go(resume.Immediate{}, func(ctx context.Context) (int, error) {
		panic("boom")
	})
	_, err := tk.Await(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestThreadPoolPolicyDefersTaskStart(t *testing.T) {
	var tp resume.ThreadPool
	started := make(chan struct{}, 1)
	tk := task.Go[int](&tp, func(ctx context.Context) (int, error) {
		started <- struct{}{}
		return 5, nil
	})

	select {
	case <-started:
		t.Fatal("task started before pool was initialized")
	case <-time.After(20 * time.Millisecond):
	}

	tp.Initialize(submitterFunc(func(h func()) { h() }))
	v, err := tk.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

type submitterFunc func(func())

func (f submitterFunc) Submit(h func()) { f(h) }

func TestGoCancelablePropagatesCancellation(t *testing.T) {
	tk, cancel := task.GoCancelable[int](context.Background(), resume.Immediate{}, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, context.Cause(ctx)
	})
	reason := errors.New("stop it")
	cancel(reason)
	_, err := tk.Await(context.Background())
	require.ErrorIs(t, err, reason)
}
