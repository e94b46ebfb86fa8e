// Package worker runs image import jobs: analyze the image, then hand the
// extracted candidates to the estimate as one batch.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/framecount/internal/adapters/mq/queue"
	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/types"
	"github.com/okian/framecount/pkg/logger"
	"github.com/okian/framecount/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// FailureMessage is the single user-facing error recorded for a failed import.
const FailureMessage = "image analysis failed"

// Analyzer extracts shot candidates from an image.
type Analyzer interface {
	Analyze(ctx context.Context, img model.Image) ([]model.Candidate, error)
}

// Sink receives the candidates of a successful analysis.
type Sink interface {
	AddBatch(ctx context.Context, candidates []model.Candidate) (types.BatchResult, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes import jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	sink     Sink
	tracker  *Tracker
	name     string

	shutdown chan struct{}
	done     chan struct{}
	// draining makes the worker fail queued jobs instead of analyzing them.
	draining atomic.Bool

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, analyzer Analyzer, sink Sink, tracker *Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		analyzer: analyzer,
		sink:     sink,
		tracker:  tracker,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			err := w.processJob(ctx, job)
			switch {
			case errors.Is(err, ErrShuttingDown):
				w.logger.Warn(ctx, "import dropped on shutdown", logger.String("job_id", job.ID))
			case err != nil:
				w.logger.Error(ctx, "import failed",
					logger.String("job_id", job.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs one import. Analysis failures leave the estimate untouched.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam: jobs travel by value through the channel
	if w.draining.Load() {
		w.tracker.Fail(job.ID, FailureMessage)
		metrics.RecordImportJob(StateFailed)
		metrics.RecordErrorByComponent("worker", "shutdown")
		return fmt.Errorf("job %s: %w", job.ID, ErrShuttingDown)
	}

	start := time.Now()
	metrics.IncWorkerBusy()
	defer func() {
		metrics.DecWorkerBusy()
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	w.tracker.Start(job.ID)

	analyzeStart := time.Now()
	candidates, err := w.analyzer.Analyze(ctx, job.Image)
	metrics.RecordAnalyzerLatency(float64(time.Since(analyzeStart).Milliseconds()))
	if err != nil {
		w.tracker.Fail(job.ID, FailureMessage)
		metrics.RecordImportJob(StateFailed)
		metrics.RecordErrorByComponent("worker", "analysis_error")
		return fmt.Errorf("analyze image for job %s: %w", job.ID, err)
	}
	metrics.RecordCandidatesParsed(len(candidates))

	result, err := w.sink.AddBatch(ctx, candidates)
	if err != nil {
		w.tracker.Fail(job.ID, FailureMessage)
		metrics.RecordImportJob(StateFailed)
		metrics.RecordErrorByComponent("worker", "sink_error")
		return fmt.Errorf("apply batch for job %s: %w", job.ID, err)
	}

	w.tracker.Complete(job.ID, len(candidates), result)
	metrics.RecordImportJob(StateCompleted)
	w.logger.Info(ctx, "import completed",
		logger.String("job_id", job.ID),
		logger.Int("candidates", len(candidates)),
		logger.Int("added", result.Added),
		logger.Int("duplicates", result.Duplicates),
		logger.Int("skipped", result.Skipped),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	tracker *Tracker
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive count falls back to the default.
func NewPool(workerCount int, q Queue, analyzer Analyzer, sink Sink, tracker *Tracker) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		tracker: tracker,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := range workerCount {
		pool.workers[i] = NewInMemoryWorker(q, analyzer, sink, tracker,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for every worker to stop. In-flight
// analyses finish; jobs still queued are failed rather than analyzed, and any
// job left pending or running afterwards is failed too, so no job outlives
// the pool unresolved.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, w := range p.workers {
		w.draining.Store(true)
	}

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		// Workers exit once the closed queue is drained.
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	} else {
		for _, w := range p.workers {
			close(w.shutdown)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}

	if n := p.tracker.FailUnfinished(FailureMessage); n > 0 {
		metrics.RecordErrorByComponent("worker", "shutdown")
		p.logger.Warn(ctx, "failed unfinished imports on shutdown", logger.Int("jobs", n))
	}
	return nil
}
