package report

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithCurrency sets the amount formatter.
func WithCurrency(c *Currency) Option {
	return func(b *Builder) {
		if c != nil {
			b.currency = c
		}
	}
}

// WithUnboundedThreshold sets the Max above which a tier range renders as "∞".
func WithUnboundedThreshold(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithDefaultTitle sets the title used when none is supplied.
func WithDefaultTitle(title string) Option {
	return func(b *Builder) {
		if title != "" {
			b.title = title
		}
	}
}

// WithIDGenerator overrides how missing report ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}
