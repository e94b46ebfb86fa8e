// Package metrics provides Prometheus metrics for the framecount estimator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Estimate metrics
	shotsAdded       prometheus.Counter
	shotsDuplicate   prometheus.Counter
	shotsSkipped     prometheus.Counter
	shotsRemoved     prometheus.Counter
	shotsUpdated     prometheus.Counter
	tierReplacements prometheus.Counter
	tierRejections   *prometheus.CounterVec
	repriceLatency   prometheus.Histogram

	totalShots    prometheus.Gauge
	totalFrames   prometheus.Gauge
	totalEstimate prometheus.Gauge
	tierCount     prometheus.Gauge

	// Import pipeline
	importJobs       *prometheus.CounterVec
	analyzerLatency  prometheus.Histogram
	analyzerErrors   *prometheus.CounterVec
	candidatesParsed prometheus.Counter

	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueRejections  *prometheus.CounterVec

	workerCount             prometheus.Gauge
	workerBusy              prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "framecount",
		subsystem:        "estimator",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.shotsAdded = m.counter("shots_added_total", "Total number of shots accepted into the estimate")
	m.shotsDuplicate = m.counter("shots_duplicate_total", "Total number of shots rejected as duplicate names")
	m.shotsSkipped = m.counter("shots_skipped_total", "Total number of imported candidates skipped for missing name or frames")
	m.shotsRemoved = m.counter("shots_removed_total", "Total number of shots removed")
	m.shotsUpdated = m.counter("shots_updated_total", "Total number of shot edits")
	m.tierReplacements = m.counter("tier_replacements_total", "Total number of pricing tier list replacements")
	m.tierRejections = m.counterVec("tier_rejections_total", "Tier edits refused, by reason", "reason")
	m.repriceLatency = m.histogram("reprice_duration_milliseconds", "Time spent re-pricing every shot after a tier change")

	m.totalShots = m.gauge("shots", "Current number of shots in the estimate")
	m.totalFrames = m.gauge("frames", "Current sum of frames across all shots")
	m.totalEstimate = m.gauge("estimate_amount", "Current estimated total in the configured currency")
	m.tierCount = m.gauge("tiers", "Current number of pricing tiers")

	m.importJobs = m.counterVec("import_jobs_total", "Image import jobs by final status", "status")
	m.analyzerLatency = m.histogram("analyzer_latency_milliseconds", "Latency of image analysis calls")
	m.analyzerErrors = m.counterVec("analyzer_errors_total", "Image analysis failures by kind", "kind")
	m.candidatesParsed = m.counter("analyzer_candidates_total", "Shot candidates returned by image analysis")

	m.queueSize = m.gauge("queue_size", "Current number of queued import jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the import job queue")
	m.queueUtilization = m.gauge("queue_utilization", "Import queue fill ratio (0-1)")
	m.queueRejections = m.counterVec("queue_rejections_total", "Import jobs refused by the queue, by reason", "reason")

	m.workerCount = m.gauge("worker_count", "Number of import workers")
	m.workerBusy = m.gauge("worker_busy", "Number of import workers currently processing a job")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "End-to-end import job processing time")

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// Shots

func RecordShotAdded() { globalManager.shotsAdded.Inc() }
func RecordShotDuplicate() { globalManager.shotsDuplicate.Inc() }
func RecordShotSkipped() { globalManager.shotsSkipped.Inc() }
func RecordShotRemoved() { globalManager.shotsRemoved.Inc() }
func RecordShotUpdated() { globalManager.shotsUpdated.Inc() }

// RecordShotsAdded adds n accepted shots at once (batch imports).
func RecordShotsAdded(n int) { globalManager.shotsAdded.Add(float64(n)) }

// RecordShotsDuplicate adds n duplicate rejections at once.
func RecordShotsDuplicate(n int) { globalManager.shotsDuplicate.Add(float64(n)) }

// RecordShotsSkipped adds n skipped candidates at once.
func RecordShotsSkipped(n int) { globalManager.shotsSkipped.Add(float64(n)) }

// UpdateEstimateTotals publishes the current collection totals.
func UpdateEstimateTotals(shots, frames int, amount int64) {
	globalManager.totalShots.Set(float64(shots))
	globalManager.totalFrames.Set(float64(frames))
	globalManager.totalEstimate.Set(float64(amount))
}

// Tiers

func RecordTierReplacement() { globalManager.tierReplacements.Inc() }
func RecordTierRejection(reason string) { globalManager.tierRejections.WithLabelValues(reason).Inc() }
func RecordRepriceLatency(ms float64) { globalManager.repriceLatency.Observe(ms) }
func UpdateTierCount(count int) { globalManager.tierCount.Set(float64(count)) }

// Imports

func RecordImportJob(status string) { globalManager.importJobs.WithLabelValues(status).Inc() }
func RecordAnalyzerLatency(ms float64) { globalManager.analyzerLatency.Observe(ms) }
func RecordAnalyzerError(kind string) { globalManager.analyzerErrors.WithLabelValues(kind).Inc() }
func RecordCandidatesParsed(n int) { globalManager.candidatesParsed.Add(float64(n)) }
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }
func RecordQueueRejection(reason string) { globalManager.queueRejections.WithLabelValues(reason).Inc() }
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }
func IncWorkerBusy() { globalManager.workerBusy.Inc() }
func DecWorkerBusy() { globalManager.workerBusy.Dec() }
func RecordWorkerProcessingLatency(ms float64) {
	globalManager.workerProcessingLatency.Observe(ms)
}

// HTTP

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// Errors

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
