package dispatcher

// config holds Dispatcher construction options, grounded on the teacher's
// resolveLoopOptions pattern.
type config struct {
	strictMicrotaskOrdering bool
}

// Option configures a Dispatcher instance.
type Option interface {
	apply(*config) error
}

type optionFunc struct {
	fn func(*config) error
}

func (o *optionFunc) apply(c *config) error { return o.fn(c) }

// WithStrictMicrotaskOrdering controls whether every popped job is followed
// by an immediate drain of the microtask queue before the loop moves on
// to its next job or timer check. Disabled by default, matching the teacher's
// default of batched draining for throughput.
func WithStrictMicrotaskOrdering(enabled bool) Option {
	return &optionFunc{func(c *config) error {
		c.strictMicrotaskOrdering = enabled
		return nil
	}}
}

func resolveOptions(opts []Option) (*config, error) {
	cfg := &config{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
