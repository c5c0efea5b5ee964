// Package metrics provides Prometheus metrics for the draftboard standings pipeline.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Merge outcomes used as the "outcome" label of merge_runs_total.
const (
	OutcomeAppended  = "appended"
	OutcomeNoNewData = "no_new_data"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Row stages used as the "stage" label of merge_rows_total.
const (
	StageRead       = "read"
	StageAppended   = "appended"
	StageUnresolved = "unresolved"
	StageSuperseded = "superseded"
)

// Manager manages all Prometheus metrics for the draftboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Merge engine
	mergeRuns      *prometheus.CounterVec
	mergeRows      *prometheus.CounterVec
	mergeDuration  prometheus.Histogram
	mergeWatermark prometheus.Gauge

	// Ingestion of raw snapshots
	snapshotsIngested prometheus.Counter
	entriesUpserted   prometheus.Counter

	// Upstream draft API
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	// Store
	storeQueryDuration *prometheus.HistogramVec

	// HTTP read API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors by component and type
	errors *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "draftboard",
		subsystem:        "standings",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.mergeRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "merge_runs_total",
			Help:        "Total number of merge runs by outcome",
			ConstLabels: m.constLabels,
		},
		[]string{"outcome"},
	)

	m.mergeRows = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "merge_rows_total",
			Help:        "Rows seen by the merge engine by stage (read, appended, unresolved, superseded)",
			ConstLabels: m.constLabels,
		},
		[]string{"stage"},
	)

	m.mergeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "merge_duration_seconds",
		Help:        "Wall time of a merge run",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.mergeWatermark = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "merge_watermark_unix_seconds",
		Help:        "Newest observation time present in the enriched table",
		ConstLabels: m.constLabels,
	})

	m.snapshotsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshots_ingested_total",
		Help:        "Raw standings rows appended by ingest",
		ConstLabels: m.constLabels,
	})

	m.entriesUpserted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "entries_upserted_total",
		Help:        "League entries written by ingest",
		ConstLabels: m.constLabels,
	})

	m.upstreamRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "upstream_requests_total",
			Help:        "Requests to the draft league API by endpoint and outcome",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "outcome"},
	)

	m.upstreamDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "upstream_request_duration_seconds",
			Help:        "Latency of draft league API requests, retries included",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint"},
	)

	m.storeQueryDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "store_query_duration_milliseconds",
			Help:        "Store operation latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"op"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_total",
			Help:        "Errors by component and type",
			ConstLabels: m.constLabels,
		},
		[]string{"component", "type"},
	)
}

// Global metrics functions for easy access.

// RecordMergeRun records the outcome and wall time of one merge run.
func RecordMergeRun(outcome string, d time.Duration) {
	globalManager.mergeRuns.WithLabelValues(outcome).Inc()
	globalManager.mergeDuration.Observe(d.Seconds())
}

// RecordMergeRows adds n rows to the given stage counter.
func RecordMergeRows(stage string, n int) {
	if n <= 0 {
		return
	}
	globalManager.mergeRows.WithLabelValues(stage).Add(float64(n))
}

// UpdateWatermark sets the watermark gauge. A zero time clears it.
func UpdateWatermark(ts time.Time) {
	if ts.IsZero() {
		globalManager.mergeWatermark.Set(0)
		return
	}
	globalManager.mergeWatermark.Set(float64(ts.Unix()))
}

// RecordSnapshotsIngested adds n to the ingested snapshot counter.
func RecordSnapshotsIngested(n int) {
	globalManager.snapshotsIngested.Add(float64(n))
}

// RecordEntriesUpserted adds n to the upserted entry counter.
func RecordEntriesUpserted(n int) {
	globalManager.entriesUpserted.Add(float64(n))
}

// RecordUpstreamRequest records one upstream call.
func RecordUpstreamRequest(endpoint, outcome string, d time.Duration) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordStoreQuery records a store operation latency.
func RecordStoreQuery(op string, d time.Duration) {
	globalManager.storeQueryDuration.WithLabelValues(op).Observe(float64(d.Microseconds()) / 1000)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordError increments the error counter for component and errorType.
func RecordError(component, errorType string) {
	globalManager.errors.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Push sends the current contents of the custom registry to a Pushgateway
// under the given job name. Batch commands call it before exiting.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	err := push.New(url, job).Gatherer(customRegistry).PushContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}
