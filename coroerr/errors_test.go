package coroerr_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/concurro/coro/coroerr"
)

func TestPanicErrorUnwrap(t *testing.T) {
	pe := &coroerr.PanicError{Value: io.EOF}
	require.True(t, errors.Is(pe, io.EOF))

	pe2 := &coroerr.PanicError{Value: "not an error"}
	require.Nil(t, pe2.Unwrap())
}

func TestAggregateError(t *testing.T) {
	agg := &coroerr.AggregateError{Errors: []error{io.EOF, io.ErrUnexpectedEOF}}
	require.True(t, errors.Is(agg, io.EOF))
	require.True(t, errors.Is(agg, io.ErrUnexpectedEOF))

	var other *coroerr.AggregateError
	require.True(t, errors.As(error(agg), &other))
}

func TestWrap(t *testing.T) {
	err := coroerr.Wrap("lock failed", coroerr.ErrCanceledAwait)
	require.True(t, errors.Is(err, coroerr.ErrCanceledAwait))
	require.Contains(t, err.Error(), "lock failed")
}
