package syncx_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/syncx"
)

func TestCounterAwaitReturnsImmediatelyWhenNonPositive(t *testing.T) {
	c := syncx.NewCounter(0)
	require.NoError(t, c.Await(context.Background()))

	c2 := syncx.NewCounter(-3)
	require.NoError(t, c2.Await(context.Background()))
}

func TestCounterAwaitBlocksUntilDrained(t *testing.T) {
	c := syncx.NewCounter(2)
	done := make(chan struct{})
	go func() {
		require.NoError(t, c.Await(context.Background()))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("should not have released yet")
	case <-time.After(20 * time.Millisecond):
	}

	c.Decrement()
	select {
	case <-done:
		t.Fatal("should still be positive after one decrement")
	case <-time.After(20 * time.Millisecond):
	}

	c.Decrement()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("counter never released at zero")
	}
}

func TestCounterSetValueReleasesAtOrBelowZero(t *testing.T) {
	c := syncx.NewCounter(5)
	done := make(chan struct{})
	go func() {
		require.NoError(t, c.Await(context.Background()))
		close(done)
	}()

	c.SetValue(0)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("setvalue(0) never released waiter")
	}
}
