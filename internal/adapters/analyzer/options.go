package analyzer

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/framecount/pkg/logger"
)

// Option applies a configuration option to the Gemini analyzer.
type Option func(*Gemini)

// WithModel selects the Gemini model.
func WithModel(model string) Option {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTimeout bounds a single analysis call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gemini) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRateLimit caps outbound calls per second. A non-positive rps disables throttling.
func WithRateLimit(rps float64) Option {
	return func(g *Gemini) {
		if rps <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gemini) {
		if l != nil {
			g.logger = l
		}
	}
}
