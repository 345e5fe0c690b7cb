package pool_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/pool"
)

func TestRunExecutesOnAWorkerAndReturnsResult(t *testing.T) {
	p := pool.New(pool.WithWorkers(2))
	defer p.Shutdown()

	fut := pool.Run(p, func(ctx context.Context) (int, error) {
		return 21 * 2, nil
	})
	v, err := fut.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestPoolRunsJobsConcurrently(t *testing.T) {
	p := pool.New(pool.WithWorkers(4))
	defer p.Shutdown()

	var running int32
	var maxRunning int32
	release := make(chan struct{})

	for i := 0; i < 4; i++ {
		pool.RunDetached(p, func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&maxRunning)
				if n <= old || atomic.CompareAndSwapInt32(&maxRunning, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			return nil
		}, nil)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	time.Sleep(20 * time.Millisecond)

	require.Equal(t, int32(4), atomic.LoadInt32(&maxRunning))
}

func TestPoolPolicySatisfiesResumePolicy(t *testing.T) {
	p := pool.New(pool.WithWorkers(1))
	defer p.Shutdown()

	policy := p.Policy()
	done := make(chan struct{})
	policy.Resume(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("policy never resumed via the pool")
	}
}
