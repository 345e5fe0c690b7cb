package syncx_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/syncx"
)

func TestBarrierReleasesAtPartyCount(t *testing.T) {
	b := syncx.NewBarrier(3)
	var wg sync.WaitGroup
	released := make(chan struct{}, 3)

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, b.Arrive(context.Background()))
			released <- struct{}{}
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("barrier never released all parties")
	}
	require.Len(t, released, 3)
}

func TestBarrierIsReusable(t *testing.T) {
	b := syncx.NewBarrier(2)
	for round := 0; round < 2; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, b.Arrive(context.Background()))
			}()
		}
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("round %d never released", round)
		}
	}
}

func TestBarrierManualRelease(t *testing.T) {
	b := syncx.NewBarrier(0)
	done := make(chan struct{})
	go func() {
		require.NoError(t, b.Arrive(context.Background()))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("manual-only barrier should not auto-release")
	case <-time.After(20 * time.Millisecond):
	}

	b.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("release never woke the waiter")
	}
}
