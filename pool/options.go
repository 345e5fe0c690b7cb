package pool

import (
	"runtime"

	"github.com/concurro/coro/corolog"
)

type config struct {
	workers int
	logger  corolog.Logger
}

// Option configures a Pool instance.
type Option interface {
	apply(*config) error
}

type optionFunc struct{ fn func(*config) error }

func (o *optionFunc) apply(c *config) error { return o.fn(c) }

// WithWorkers sets the fixed worker count. Defaults to
// runtime.GOMAXPROCS(0) when unset or non-positive.
func WithWorkers(n int) Option {
	return &optionFunc{func(c *config) error {
		c.workers = n
		return nil
	}}
}

// WithLogger attaches a corolog logger; unhandled errors from detached jobs
// are logged at Warn level. Defaults to corolog.Noop.
func WithLogger(l corolog.Logger) Option {
	return &optionFunc{func(c *config) error {
		c.logger = l
		return nil
	}}
}

func resolveOptions(opts []Option) (*config, error) {
	cfg := &config{workers: runtime.GOMAXPROCS(0), logger: corolog.Noop}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}
	return cfg, nil
}
