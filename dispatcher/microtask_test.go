package dispatcher_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/dispatcher"
)

func TestScheduleMicrotaskRunsBeforeNextWait(t *testing.T) {
	d := dispatcher.New(dispatcher.WithStrictMicrotaskOrdering(true))
	cancel := runLoop(t, d)
	defer cancel()

	done := make(chan struct{})
	require.NoError(t, d.ScheduleMicrotask(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("microtask never ran")
	}
}

func TestScheduleMicrotaskAfterStopFails(t *testing.T) {
	d := dispatcher.New()
	cancel := runLoop(t, d)
	cancel()
	<-d.Done()

	err := d.ScheduleMicrotask(func() {})
	require.Error(t, err)
}
