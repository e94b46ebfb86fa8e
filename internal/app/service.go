// Package service owns the estimate: the shot collection and the pricing
// tiers. Every mutation goes through it, and it implements the dependencies
// required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/framecount/internal/adapters/analyzer"
	"github.com/okian/framecount/internal/adapters/mq/queue"
	"github.com/okian/framecount/internal/adapters/mq/worker"
	"github.com/okian/framecount/internal/adapters/report"
	"github.com/okian/framecount/internal/adapters/repository"
	"github.com/okian/framecount/internal/domain/dedupe"
	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/naming"
	"github.com/okian/framecount/internal/domain/pricing"
	"github.com/okian/framecount/internal/domain/types"
	"github.com/okian/framecount/pkg/logger"
	"github.com/okian/framecount/pkg/metrics"
)

const (
	defaultWorkerCount = 2
	defaultQueueSize   = 64
)

// ShotPatch holds the editable fields of a shot. Nil fields are left unchanged.
type ShotPatch struct {
	Name   *string
	Frames *int
}

// Service implements the API dependencies for the estimator.
type Service struct {
	// mu serializes mutations of the shot collection and the tier list so a
	// tier replacement and its re-pricing are observed as one step.
	mu sync.RWMutex

	store    repository.Store
	names    *dedupe.NameSet
	tiers    []pricing.Tier
	analyzer analyzer.Analyzer
	reports  *report.Builder
	currency *report.Currency

	// Import pipeline, created by Start.
	importQueue *queue.InMemoryQueue
	workerPool  *worker.Pool
	tracker     *worker.Tracker

	workerCount int
	queueSize   int
	threshold   int
	reportTitle string

	started bool
	now     func() time.Time
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		tiers:       pricing.DefaultTiers(),
		analyzer:    analyzer.Disabled{},
		currency:    report.DefaultCurrency(),
		tracker:     worker.NewTracker(),
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		threshold:   pricing.DefaultUnboundedThreshold,
		reportTitle: report.DefaultTitle,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.names = dedupe.NewNameSet(s.store.Names(context.Background()))
	s.reports = report.NewBuilder(
		report.WithCurrency(s.currency),
		report.WithUnboundedThreshold(s.threshold),
		report.WithDefaultTitle(s.reportTitle),
	)

	metrics.UpdateTierCount(len(s.tiers))
	return s
}

// Start creates the import queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.importQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.importQueue, s.analyzer, s, s.tracker)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "estimator service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("analyzer", analyzer.Enabled(s.analyzer)),
		logger.Int("tiers", len(s.tiers)),
	)
	return nil
}

// Stop closes the import queue and waits for the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	pool := s.workerPool
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping estimator service...")
	// Workers call back into AddBatch, so the lock must not be held here.
	if err := pool.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop worker pool: %w", err)
	}
	s.logger.Info(ctx, "estimator service stopped")
	return nil
}

// AddShot normalizes, de-duplicates, prices and stores one shot.
// Zero frames are accepted.
func (s *Service) AddShot(ctx context.Context, name string, frames int, previewRef string) (types.ShotView, error) {
	if frames < 0 {
		return types.ShotView{}, ErrInvalidFrames
	}
	normalized := naming.Normalize(name)
	if normalized == "" {
		return types.ShotView{}, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.names.SeenAndRecord(ctx, normalized) {
		metrics.RecordShotDuplicate()
		return types.ShotView{}, fmt.Errorf("%w: %s", ErrDuplicateName, normalized)
	}

	shot := model.Shot{
		ID:         uuid.NewString(),
		Name:       normalized,
		Frames:     frames,
		Price:      pricing.Classify(frames, s.tiers),
		PreviewRef: previewRef,
		CreatedAt:  s.now(),
	}
	if err := s.store.Insert(ctx, shot); err != nil {
		s.names.Unrecord(ctx, normalized)
		return types.ShotView{}, fmt.Errorf("store shot: %w", err)
	}

	metrics.RecordShotAdded()
	s.publishTotalsLocked(ctx)
	s.logger.Debug(ctx, "shot added",
		logger.String("id", shot.ID),
		logger.String("name", shot.Name),
		logger.Int("frames", shot.Frames),
		logger.Int64("price", shot.Price),
	)
	return s.viewLocked(shot), nil
}

// AddBatch adds many candidates at once, e.g. from an image import.
// Duplicates against the collection or earlier in the batch are dropped, as
// are candidates without a name or frames.
func (s *Service) AddBatch(ctx context.Context, candidates []model.Candidate) (types.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	part := dedupe.Partition(ctx, s.store.Names(ctx), candidates)
	now := s.now()

	shots := make([]model.Shot, 0, len(part.Accepted))
	for _, c := range part.Accepted {
		shots = append(shots, model.Shot{
			ID:        uuid.NewString(),
			Name:      c.Name,
			Frames:    c.Frames,
			Price:     pricing.Classify(c.Frames, s.tiers),
			CreatedAt: now,
		})
	}

	// Apply all or nothing.
	all := append(s.store.List(ctx), shots...)
	if err := s.store.ReplaceAll(ctx, all); err != nil {
		return types.BatchResult{}, fmt.Errorf("store batch: %w", err)
	}

	result := types.BatchResult{
		Added:      len(shots),
		Duplicates: part.Duplicates,
		Skipped:    part.Skipped,
		Shots:      make([]types.ShotView, 0, len(shots)),
	}
	for _, shot := range shots {
		s.names.SeenAndRecord(ctx, shot.Name)
		result.Shots = append(result.Shots, s.viewLocked(shot))
	}

	metrics.RecordShotsAdded(result.Added)
	metrics.RecordShotsDuplicate(result.Duplicates)
	metrics.RecordShotsSkipped(result.Skipped)
	s.publishTotalsLocked(ctx)
	s.logger.Info(ctx, "batch added",
		logger.Int("candidates", len(candidates)),
		logger.Int("added", result.Added),
		logger.Int("duplicates", result.Duplicates),
		logger.Int("skipped", result.Skipped),
	)
	return result, nil
}

// UpdateShot edits a shot's name and/or frames and re-prices it.
func (s *Service) UpdateShot(ctx context.Context, id string, patch ShotPatch) (types.ShotView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shot, err := s.store.Get(ctx, id)
	if err != nil {
		return types.ShotView{}, s.storeErr(id, err)
	}

	if patch.Frames != nil {
		if *patch.Frames < 0 {
			return types.ShotView{}, ErrInvalidFrames
		}
		shot.Frames = *patch.Frames
	}

	oldName := shot.Name
	if patch.Name != nil {
		normalized := naming.Normalize(*patch.Name)
		if normalized == "" {
			return types.ShotView{}, ErrInvalidName
		}
		if normalized != oldName {
			if s.names.Contains(normalized) {
				metrics.RecordShotDuplicate()
				return types.ShotView{}, fmt.Errorf("%w: %s", ErrDuplicateName, normalized)
			}
			shot.Name = normalized
		}
	}

	shot.Price = pricing.Classify(shot.Frames, s.tiers)
	if err := s.store.Update(ctx, shot); err != nil {
		return types.ShotView{}, s.storeErr(id, err)
	}
	if shot.Name != oldName {
		s.names.Unrecord(ctx, oldName)
		s.names.SeenAndRecord(ctx, shot.Name)
	}

	metrics.RecordShotUpdated()
	s.publishTotalsLocked(ctx)
	return s.viewLocked(shot), nil
}

// RemoveShot deletes a shot by id.
func (s *Service) RemoveShot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shot, err := s.store.Get(ctx, id)
	if err != nil {
		return s.storeErr(id, err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeErr(id, err)
	}
	s.names.Unrecord(ctx, shot.Name)

	metrics.RecordShotRemoved()
	s.publishTotalsLocked(ctx)
	return nil
}

// Shot returns one shot.
func (s *Service) Shot(ctx context.Context, id string) (types.ShotView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shot, err := s.store.Get(ctx, id)
	if err != nil {
		return types.ShotView{}, s.storeErr(id, err)
	}
	return s.viewLocked(shot), nil
}

// Shots returns every shot in insertion order.
func (s *Service) Shots(ctx context.Context) []types.ShotView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shots := s.store.List(ctx)
	views := make([]types.ShotView, len(shots))
	for i, shot := range shots {
		views[i] = s.viewLocked(shot)
	}
	return views
}

// Summary returns the estimate totals.
func (s *Service) Summary(ctx context.Context) types.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryLocked(ctx)
}

// Tiers returns the pricing tiers with per-tier shot counts.
func (s *Service) Tiers(ctx context.Context) []types.TierView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tierViewsLocked(ctx)
}

// ReplaceTiers swaps the whole tier list and re-prices every shot from its
// stored frame count. Invalid tables change nothing.
func (s *Service) ReplaceTiers(ctx context.Context, tiers []pricing.Tier) ([]types.TierView, error) {
	if err := pricing.Validate(tiers); err != nil {
		metrics.RecordTierRejection("invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidTiers, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyTiersLocked(ctx, pricing.Clone(tiers)); err != nil {
		return nil, err
	}
	metrics.RecordTierReplacement()
	s.logger.Info(ctx, "pricing tiers replaced", logger.Int("tiers", len(tiers)))
	return s.tierViewsLocked(ctx), nil
}

// RemoveTier deletes the tier at index unless some shot is currently
// classified by it.
func (s *Service) RemoveTier(ctx context.Context, index int) ([]types.TierView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.tiers) {
		return nil, fmt.Errorf("tier %d: %w", index, ErrNotFound)
	}
	for _, shot := range s.store.List(ctx) {
		if _, i, ok := pricing.Find(shot.Frames, s.tiers); ok && i == index {
			metrics.RecordTierRejection("in_use")
			return nil, fmt.Errorf("tier %q: %w", s.tiers[index].Label, ErrTierInUse)
		}
	}

	next := make([]pricing.Tier, 0, len(s.tiers)-1)
	next = append(next, s.tiers[:index]...)
	next = append(next, s.tiers[index+1:]...)
	if err := s.applyTiersLocked(ctx, next); err != nil {
		return nil, err
	}
	metrics.RecordTierReplacement()
	return s.tierViewsLocked(ctx), nil
}

// SubmitImport queues an image for analysis. The returned status is pending;
// poll Import for the outcome.
func (s *Service) SubmitImport(ctx context.Context, img model.Image) (types.ImportStatus, error) {
	if !analyzer.Enabled(s.analyzer) {
		return types.ImportStatus{}, ErrAnalyzerDisabled
	}

	s.mu.RLock()
	started, q := s.started, s.importQueue
	s.mu.RUnlock()
	if !started {
		return types.ImportStatus{}, ErrNotStarted
	}

	if len(img.Data) == 0 {
		return types.ImportStatus{}, ErrEmptyImage
	}
	if img.MIMEType == "" {
		img.MIMEType = analyzer.DetectMIMEType(img.Data)
	}
	if !analyzer.IsSupportedMIMEType(img.MIMEType) {
		return types.ImportStatus{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, img.MIMEType)
	}

	id, err := worker.NewJobID()
	if err != nil {
		return types.ImportStatus{}, err
	}
	job := model.ImportJob{ID: id, Image: img, SubmittedAt: s.now()}

	s.tracker.Submit(id, job.SubmittedAt)
	if err := q.Enqueue(ctx, job); err != nil {
		s.tracker.Forget(id)
		metrics.RecordImportJob("rejected")
		return types.ImportStatus{}, fmt.Errorf("enqueue import: %w", err)
	}

	s.logger.Info(ctx, "import queued",
		logger.String("job_id", id),
		logger.String("mime", img.MIMEType),
		logger.Int("bytes", len(img.Data)),
	)
	status, _ := s.tracker.Get(id)
	return status, nil
}

// Import returns the status of an import job.
func (s *Service) Import(_ context.Context, id string) (types.ImportStatus, error) {
	status, ok := s.tracker.Get(id)
	if !ok {
		return types.ImportStatus{}, fmt.Errorf("import %q: %w", id, ErrNotFound)
	}
	return status, nil
}

// Report builds an export document from a consistent snapshot of shots and tiers.
func (s *Service) Report(ctx context.Context, cfg model.ReportConfig) report.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports.Build(s.store.List(ctx), s.tiers, cfg, s.now())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	ctx := context.Background()

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := s.summaryLocked(ctx)
	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"analyzerEnabled": analyzer.Enabled(s.analyzer),
		"shots":           summary.ShotCount,
		"totalFrames":     summary.TotalFrames,
		"totalPrice":      summary.TotalPrice,
		"tiers":           len(s.tiers),
		"imports":         s.tracker.Counts(),
		"uniqueNames":     s.names.Size(),
	}

	if s.started {
		queueLen := s.importQueue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}

// applyTiersLocked installs tiers and re-prices every shot in one pass.
func (s *Service) applyTiersLocked(ctx context.Context, tiers []pricing.Tier) error {
	start := time.Now()

	shots := s.store.List(ctx)
	for i := range shots {
		shots[i].Price = pricing.Classify(shots[i].Frames, tiers)
	}
	if err := s.store.ReplaceAll(ctx, shots); err != nil {
		return fmt.Errorf("reprice shots: %w", err)
	}
	s.tiers = tiers

	metrics.RecordRepriceLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateTierCount(len(tiers))
	s.publishTotalsLocked(ctx)
	return nil
}

func (s *Service) viewLocked(shot model.Shot) types.ShotView {
	v := types.ShotView{
		ID:             shot.ID,
		Name:           shot.Name,
		Frames:         shot.Frames,
		Price:          shot.Price,
		PriceFormatted: s.currency.Format(shot.Price),
		TierIndex:      -1,
		PreviewRef:     shot.PreviewRef,
	}
	if tier, i, ok := pricing.Find(shot.Frames, s.tiers); ok {
		v.TierLabel = tier.Label
		v.TierIndex = i
	}
	return v
}

func (s *Service) tierViewsLocked(ctx context.Context) []types.TierView {
	counts := make([]int, len(s.tiers))
	for _, shot := range s.store.List(ctx) {
		if _, i, ok := pricing.Find(shot.Frames, s.tiers); ok {
			counts[i]++
		}
	}

	views := make([]types.TierView, len(s.tiers))
	for i, t := range s.tiers {
		views[i] = types.TierView{
			Index:          i,
			Min:            t.Min,
			Max:            t.Max,
			Price:          t.Price,
			Label:          t.Label,
			RangeLabel:     t.RangeLabel(s.threshold),
			PriceFormatted: s.currency.Format(t.Price),
			ShotCount:      counts[i],
		}
	}
	return views
}

func (s *Service) summaryLocked(ctx context.Context) types.Summary {
	var sum types.Summary
	for _, shot := range s.store.List(ctx) {
		sum.ShotCount++
		sum.TotalFrames += shot.Frames
		sum.TotalPrice += shot.Price
	}
	sum.TotalFormatted = s.currency.Format(sum.TotalPrice)
	return sum
}

func (s *Service) publishTotalsLocked(ctx context.Context) {
	sum := s.summaryLocked(ctx)
	metrics.UpdateEstimateTotals(sum.ShotCount, sum.TotalFrames, sum.TotalPrice)
}

func (s *Service) storeErr(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("shot %q: %w", id, ErrNotFound)
	}
	return err
}
