package future_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/coroerr"
	"github.com/concurro/coro/future"
)

func TestResolveThenGetYieldsValue(t *testing.T) {
	f, p := future.New[int]()
	require.True(t, p.Resolve(42))
	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestDoubleResolveDoesNotOverwrite(t *testing.T) {
	f, p := future.New[int]()
	require.True(t, p.Resolve(1))
	require.False(t, p.Resolve(2))
	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestReleaseWithoutResolveCancels(t *testing.T) {
	f, p := future.New[string]()
	p.Release()
	_, err := f.Wait()
	require.True(t, errors.Is(err, coroerr.ErrCanceledAwait))
}

func TestClonedPromiseDefersCancellationUntilAllReleased(t *testing.T) {
	f, p1 := future.New[int]()
	p2 := p1.Clone()

	p1.Release()
	require.False(t, f.Ready())

	require.True(t, p2.Resolve(7))
	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestFutureRelayAcrossGoroutines(t *testing.T) {
	f, p := future.New[int]()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		p.Resolve(42)
	}()

	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)
	wg.Wait()

	// Subsequent await returns immediately without suspension.
	v2, err2 := f.Wait()
	require.NoError(t, err2)
	require.Equal(t, 42, v2)
}

func TestAwaitRespectsContextCancellation(t *testing.T) {
	f, _ := future.New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTryGetReportsReadiness(t *testing.T) {
	f, p := future.New[int]()
	_, _, ok := f.TryGet()
	require.False(t, ok)

	p.Resolve(9)
	v, err, ok := f.TryGet()
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 9, v)
}
