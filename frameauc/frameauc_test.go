package frameauc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/frameauc"
)

func TestGetReturnsRequestedLength(t *testing.T) {
	c := frameauc.New()
	buf := c.Get(100)
	require.Len(t, buf, 100)
}

func TestPutThenGetReusesBlock(t *testing.T) {
	c := frameauc.New(frameauc.WithStep(64), frameauc.WithLevels(4))
	buf := c.Get(64)
	buf[0] = 0xAB
	c.Put(buf)

	reused := c.Get(64)
	require.Len(t, reused, 64)
	require.Equal(t, byte(0xAB), reused[0])
}

func TestOversizedFallsThroughToHeap(t *testing.T) {
	c := frameauc.New(frameauc.WithStep(8), frameauc.WithLevels(2))
	buf := c.Get(1000)
	require.Len(t, buf, 1000)
}

func TestDisabledAlwaysAllocatesFresh(t *testing.T) {
	c := frameauc.New(frameauc.WithDisabled())
	buf := c.Get(32)
	require.Len(t, buf, 32)
	buf[0] = 0xAB
	c.Put(buf)

	fresh := c.Get(32)
	require.Zero(t, fresh[0])
}
