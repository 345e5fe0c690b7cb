package syncx_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/syncx"
)

func TestTryLockSucceedsWhenUnlocked(t *testing.T) {
	m := syncx.NewMutex()
	require.True(t, m.TryLock())
	require.False(t, m.TryLock())
	m.Unlock()
	require.True(t, m.TryLock())
}

func TestLockBlocksUntilUnlock(t *testing.T) {
	m := syncx.NewMutex()
	require.NoError(t, m.Lock(context.Background()))

	acquired := make(chan struct{})
	go func() {
		require.NoError(t, m.Lock(context.Background()))
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second locker should not have acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	m.Unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second locker never acquired after unlock")
	}
}

// TestMutexAcquisitionIsFIFO seeds five contending lockers in order and
// verifies they acquire in that same order, per the FIFO property.
func TestMutexAcquisitionIsFIFO(t *testing.T) {
	m := syncx.NewMutex()
	require.NoError(t, m.Lock(context.Background()))

	const n = 5
	order := make([]int, 0, n)
	var orderMu sync.Mutex
	started := make(chan struct{}, n)
	var wg sync.WaitGroup

	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			started <- struct{}{}
			require.NoError(t, m.Lock(context.Background()))
			orderMu.Lock()
			order = append(order, id)
			orderMu.Unlock()
			m.Unlock()
		}(i)
		<-started
		// give the goroutine a moment to register as a waiter before the
		// next one starts, so registration order is deterministic.
		time.Sleep(5 * time.Millisecond)
	}

	m.Unlock()
	wg.Wait()

	require.Equal(t, []int{1, 2, 3, 4, 5}, order)
}
