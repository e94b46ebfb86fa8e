package service

import (
	"time"

	"github.com/okian/framecount/internal/adapters/analyzer"
	"github.com/okian/framecount/internal/adapters/report"
	"github.com/okian/framecount/internal/adapters/repository"
	"github.com/okian/framecount/internal/domain/pricing"
	"github.com/okian/framecount/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of import workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending import jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTiers sets the initial pricing tiers. Invalid tables are ignored.
func WithTiers(tiers []pricing.Tier) Option {
	return func(s *Service) {
		if pricing.Validate(tiers) == nil {
			s.tiers = pricing.Clone(tiers)
		}
	}
}

// WithAnalyzer sets the image analyzer used by imports.
func WithAnalyzer(a analyzer.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithStore sets the shot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCurrency sets the formatter for displayed amounts.
func WithCurrency(c *report.Currency) Option {
	return func(s *Service) {
		if c != nil {
			s.currency = c
		}
	}
}

// WithUnboundedThreshold sets the Max above which tier ranges display as "∞".
func WithUnboundedThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// WithReportTitle sets the default report title.
func WithReportTitle(title string) Option {
	return func(s *Service) {
		if title != "" {
			s.reportTitle = title
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
