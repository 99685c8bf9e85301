// Package metrics provides Prometheus metrics for the userstats service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the userstats service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	sizeBuckets      []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Decode metrics
	recordsDecoded prometheus.Counter
	decodeErrors   *prometheus.CounterVec

	// Report metrics
	reportsServed  *prometheus.CounterVec
	reportLatency  *prometheus.HistogramVec
	recordsSkipped *prometheus.CounterVec
	namesCounted   prometheus.Counter

	// Name store metrics
	nameStoreSize      prometheus.Gauge
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// Upload metrics
	uploadBytes    prometheus.Histogram
	uploadsSaved   prometheus.Counter
	uploadRejected *prometheus.CounterVec

	// Archive queue metrics
	archiveQueueSize   prometheus.Gauge
	archiveEnqueued    *prometheus.CounterVec
	archiveSaveLatency prometheus.Histogram
	archiveWorkers     prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "userstats",
		subsystem:        "insights",
		histogramBuckets: prometheus.DefBuckets,
		sizeBuckets:      prometheus.ExponentialBuckets(256, 4, 10),
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.recordsDecoded = auto.NewCounter(m.counterOpts("records_decoded_total",
		"Total number of user records decoded from uploads"))
	m.decodeErrors = auto.NewCounterVec(m.counterOpts("decode_errors_total",
		"Total number of uploads rejected by the record decoder"), []string{"reason"})

	m.reportsServed = auto.NewCounterVec(m.counterOpts("reports_total",
		"Total number of reports computed by operation and outcome"), []string{"operation", "outcome"})
	m.reportLatency = auto.NewHistogramVec(m.histogramOpts("report_duration_milliseconds",
		"Decode plus aggregation time per report in milliseconds", m.histogramBuckets), []string{"operation"})
	m.recordsSkipped = auto.NewCounterVec(m.counterOpts("records_skipped_total",
		"Records left out of a report by operation and reason"), []string{"operation", "reason"})
	m.namesCounted = auto.NewCounter(m.counterOpts("names_counted_total",
		"Total number of name increments applied to the name store"))

	m.nameStoreSize = auto.NewGauge(m.gaugeOpts("name_store_size",
		"Number of distinct names in the accumulating name store"))
	m.storeUpdateLatency = auto.NewHistogram(m.histogramOpts("name_store_update_latency_milliseconds",
		"Latency of name store batch increments in milliseconds", m.histogramBuckets))
	m.storeQueryLatency = auto.NewHistogram(m.histogramOpts("name_store_query_latency_milliseconds",
		"Latency of name store ranking queries in milliseconds", m.histogramBuckets))

	m.uploadBytes = auto.NewHistogram(m.histogramOpts("upload_bytes",
		"Size of accepted uploads in bytes", m.sizeBuckets))
	m.uploadsSaved = auto.NewCounter(m.counterOpts("uploads_saved_total",
		"Total number of uploads written to the upload directory"))
	m.uploadRejected = auto.NewCounterVec(m.counterOpts("uploads_rejected_total",
		"Total number of uploads rejected before decoding"), []string{"reason"})

	m.archiveQueueSize = auto.NewGauge(m.gaugeOpts("archive_queue_size",
		"Uploads waiting in the archive queue"))
	m.archiveEnqueued = auto.NewCounterVec(m.counterOpts("archive_enqueue_total",
		"Archive enqueue attempts by outcome"), []string{"outcome"})
	m.archiveSaveLatency = auto.NewHistogram(m.histogramOpts("archive_save_latency_milliseconds",
		"Time spent writing one archived upload in milliseconds", m.histogramBuckets))
	m.archiveWorkers = auto.NewGauge(m.gaugeOpts("archive_workers",
		"Number of running archive workers"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("http_errors_total",
		"HTTP error responses by endpoint, method and error type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes",
		"Current heap allocation in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines",
		"Current number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds",
		"Average GC pause time in milliseconds", m.histogramBuckets))
}

// Decode metrics

// RecordRecordsDecoded adds n decoded records.
func RecordRecordsDecoded(n int) {
	if globalManager.enabled {
		globalManager.recordsDecoded.Add(float64(n))
	}
}

// RecordDecodeError counts a rejected upload.
func RecordDecodeError(reason string) {
	if globalManager.enabled {
		globalManager.decodeErrors.WithLabelValues(reason).Inc()
	}
}

// Report metrics

// RecordReport counts a finished report with its outcome (ok, decode_error, ...).
func RecordReport(operation, outcome string) {
	if globalManager.enabled {
		globalManager.reportsServed.WithLabelValues(operation, outcome).Inc()
	}
}

// RecordReportLatency observes the time spent on one report.
func RecordReportLatency(operation string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.reportLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// RecordRecordSkipped counts a record left out of a report.
func RecordRecordSkipped(operation, reason string) {
	if globalManager.enabled {
		globalManager.recordsSkipped.WithLabelValues(operation, reason).Inc()
	}
}

// RecordNamesCounted adds n name increments.
func RecordNamesCounted(n int) {
	if globalManager.enabled {
		globalManager.namesCounted.Add(float64(n))
	}
}

// Name store metrics

// UpdateNameStoreSize sets the number of distinct stored names.
func UpdateNameStoreSize(size int) {
	if globalManager.enabled {
		globalManager.nameStoreSize.Set(float64(size))
	}
}

// RecordStoreUpdateLatency observes one batch increment.
func RecordStoreUpdateLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeUpdateLatency.Observe(latencyMs)
	}
}

// RecordStoreQueryLatency observes one ranking query.
func RecordStoreQueryLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeQueryLatency.Observe(latencyMs)
	}
}

// Upload metrics

// RecordUploadBytes observes the size of an accepted upload.
func RecordUploadBytes(size int) {
	if globalManager.enabled {
		globalManager.uploadBytes.Observe(float64(size))
	}
}

// RecordUploadSaved counts an upload written to disk.
func RecordUploadSaved() {
	if globalManager.enabled {
		globalManager.uploadsSaved.Inc()
	}
}

// RecordUploadRejected counts an upload rejected before decoding.
func RecordUploadRejected(reason string) {
	if globalManager.enabled {
		globalManager.uploadRejected.WithLabelValues(reason).Inc()
	}
}

// Archive queue metrics

// UpdateArchiveQueueSize sets the archive queue depth.
func UpdateArchiveQueueSize(size int) {
	if globalManager.enabled {
		globalManager.archiveQueueSize.Set(float64(size))
	}
}

// RecordArchiveEnqueue counts an enqueue attempt ("accepted", "full", "closed").
func RecordArchiveEnqueue(outcome string) {
	if globalManager.enabled {
		globalManager.archiveEnqueued.WithLabelValues(outcome).Inc()
	}
}

// RecordArchiveSaveLatency observes the write time of one archived upload.
func RecordArchiveSaveLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.archiveSaveLatency.Observe(latencyMs)
	}
}

// UpdateArchiveWorkers sets the number of running archive workers.
func UpdateArchiveWorkers(n int) {
	if globalManager.enabled {
		globalManager.archiveWorkers.Set(float64(n))
	}
}

// HTTP metrics

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// System metrics

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry the global metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
