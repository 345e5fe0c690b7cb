package resume_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/coroerr"
	"github.com/concurro/coro/resume"
)

func TestImmediateResumesInline(t *testing.T) {
	var ran bool
	resume.Immediate{}.Resume(func() { ran = true })
	require.True(t, ran)
	require.Equal(t, resume.InitialSuspendNone, resume.Immediate{}.InitialSuspend())
}

func TestQueuedDrainsNestedResumes(t *testing.T) {
	var q resume.Queued
	var order []int
	var mu sync.Mutex

	q.Resume(func() {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
		// Nested resume: must not run inline, must be appended and
		// picked up by the same drain loop.
		q.Resume(func() {
			mu.Lock()
			order = append(order, 2)
			mu.Unlock()
		})
	})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2}, order)
}

type fakePool struct {
	mu  sync.Mutex
	ran []func()
}

func (p *fakePool) Submit(h func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ran = append(p.ran, h)
}

func TestThreadPoolDefersUntilInitialized(t *testing.T) {
	var tp resume.ThreadPool
	var fired bool
	tp.Resume(func() { fired = true })
	require.False(t, fired)

	fp := &fakePool{}
	tp.Initialize(fp)
	require.Len(t, fp.ran, 1)
	fp.ran[0]()
	require.True(t, fired)

	// Further resumes go straight to the pool.
	tp.Resume(func() {})
	require.Len(t, fp.ran, 2)
}

type fakeDispatcherTarget struct {
	stopped bool
	ran     []func()
}

func (d *fakeDispatcherTarget) Schedule(h func()) error {
	if d.stopped {
		return errors.New("stopped")
	}
	d.ran = append(d.ran, h)
	return nil
}

func TestDispatcherPolicyReportsHomeThreadEnded(t *testing.T) {
	target := &fakeDispatcherTarget{}
	p := resume.NewDispatcher(target)
	require.NoError(t, p.TryResume(func() {}))
	require.Len(t, target.ran, 1)

	target.stopped = true
	err := p.TryResume(func() {})
	require.True(t, errors.Is(err, coroerr.ErrHomeThreadEnded))
}
