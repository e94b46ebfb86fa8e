// Command framecount serves the shot-cost estimator over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/framecount/internal/adapters/analyzer"
	"github.com/okian/framecount/internal/adapters/http/api"
	"github.com/okian/framecount/internal/adapters/http/swagger"
	"github.com/okian/framecount/internal/adapters/report"
	service "github.com/okian/framecount/internal/app"
	"github.com/okian/framecount/internal/config"
	"github.com/okian/framecount/pkg/logger"
	"github.com/okian/framecount/pkg/metrics"
)

// HTTP server timeouts. Writes allow for large report downloads.
const (
	readTimeout          = 30 * time.Second
	writeTimeout         = 30 * time.Second
	idleTimeout          = 60 * time.Second
	readHeaderTimeout    = 5 * time.Second
	statsRefreshInterval = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.GetRegistry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer
	}
}

// run wires the service and HTTP server from cfg and blocks until ctx is
// cancelled or the listener fails.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, handler, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		refreshStats(gctx, svc)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := svc.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("service stop: %w", err))
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

// build assembles the service and its HTTP handler without starting anything.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, http.Handler, error) {
	an, err := analyzer.New(ctx, cfg.AnalyzerEnabled, cfg.AnalyzerAPIKey,
		analyzer.WithModel(cfg.AnalyzerModel),
		analyzer.WithTimeout(cfg.AnalyzerTimeout()),
		analyzer.WithRateLimit(cfg.AnalyzerRPS),
		analyzer.WithLogger(log.Named("analyzer")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create analyzer: %w", err)
	}
	if !analyzer.Enabled(an) {
		log.Info(ctx, "image import disabled; set analyzer_enabled and analyzer_api_key to enable it")
	}

	currency, err := report.NewCurrency(cfg.CurrencyLocale, cfg.CurrencySymbol)
	if err != nil {
		return nil, nil, fmt.Errorf("currency: %w", err)
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithTiers(cfg.Tiers),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithAnalyzer(an),
		service.WithCurrency(currency),
		service.WithUnboundedThreshold(cfg.UnboundedThreshold),
		service.WithReportTitle(cfg.ReportTitle),
	)

	srv := api.NewServer(svc,
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithLogger(log.Named("http")),
	)
	swagger.Register(ctx, srv.Router())

	return svc, srv, nil
}

// refreshStats periodically pulls service stats so gauges stay current
// between requests.
func refreshStats(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(statsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if n, ok := stats["tiers"].(int); ok {
				metrics.UpdateTierCount(n)
			}
			if n, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(n)
			}
		}
	}
}
