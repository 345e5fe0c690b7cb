// Package coroerr defines the sentinel error taxonomy shared by every
// primitive in the module. Errors are plain values matched with [errors.Is];
// context is attached by wrapping with fmt.Errorf("%w: ...") rather than by
// distinct types per site.
package coroerr

import (
	"errors"
	"fmt"
)

var (
	// ErrCanceledAwait is surfaced to an awaiter when the value it was
	// waiting for will never arrive: the last promise of a future released
	// unresolved, or a scheduler sleep was canceled.
	ErrCanceledAwait = errors.New("coro: canceled await")

	// ErrValueNotReady is returned by the non-blocking accessor
	// future.Future.TryGet called before a value exists. The queues' TryPop
	// methods report an empty queue through their ok result instead.
	ErrValueNotReady = errors.New("coro: value not ready")

	// ErrNoMoreValues is returned when a generator has reached its end and
	// is asked for another value.
	ErrNoMoreValues = errors.New("coro: no more values")

	// ErrNoLongerAvailable is reserved for broadcast-subscriber primitives
	// (not implemented in this package) whose consumer fell behind the
	// retained window.
	ErrNoLongerAvailable = errors.New("coro: no longer available")

	// ErrHomeThreadEnded is returned to a dispatcher-policy task whose
	// owning dispatcher stopped before the task was resumed.
	ErrHomeThreadEnded = errors.New("coro: home dispatcher ended")

	// ErrMisuse marks a programming error detected at runtime: registering
	// a wait-list node that is already linked, or resetting one that is
	// still linked. Always checked; there is no release-build opt-out.
	// Double-await of a single awaiter and frame-allocator size mismatches
	// are not detected.
	ErrMisuse = errors.New("coro: misuse")
)

// PanicError wraps a value recovered from a panic inside a task or generator
// body. If the panicking value was itself an error, Unwrap exposes it so
// errors.Is/As still reach the original cause.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("coro: panic recovered: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// AggregateError collects the errors of several independently-failing
// operations (e.g. a fan-in over several futures) into one error value.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "coro: aggregate error (empty)"
	}
	return fmt.Sprintf("coro: aggregate error: %v (and %d more)", e.Errors[0], len(e.Errors)-1)
}

// Unwrap exposes every contained error so errors.Is/As can match any of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Is reports whether target is also an *AggregateError, regardless of
// contents, matching the teacher's loose-match convention for aggregates.
func (e *AggregateError) Is(target error) bool {
	var aggTarget *AggregateError
	return errors.As(target, &aggTarget)
}

// Wrap attaches a message to cause, preserving errors.Is/As against cause.
func Wrap(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
