// Package corolog provides the logging surface the pool logs through (the
// dispatcher and scheduler do not log): a generified logiface.Logger, matching
// the teacher's own convention of accepting the broadest, most portable
// logger handle rather than a backend-specific concrete type.
package corolog

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is a generified logiface logger: the type pool.WithLogger accepts
// for the pool's detached-job logging.
type Logger = *logiface.Logger[logiface.Event]

// Noop is a Logger with no writer configured, so every call to it is a
// cheap no-op — the default every component falls back to.
var Noop Logger = logiface.L.New().Logger()

// New builds a Logger backed by stumpy's JSON writer, configured with opts.
func New(opts ...stumpy.Option) Logger {
	return stumpy.L.New(stumpy.L.WithStumpy(opts...)).Logger()
}
