// Package metrics provides Prometheus metrics for the musclewise engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the musclewise service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine metrics
	calculations       *prometheus.CounterVec
	calculationErrors  *prometheus.CounterVec
	calculationLatency *prometheus.HistogramVec
	softFailures       *prometheus.CounterVec

	// Domain outcome metrics
	musclesExceeded     prometheus.Counter
	baselineSuggestions prometheus.Counter
	recommendations     *prometheus.CounterVec
	catalogExercises    prometheus.Gauge
	catalogMuscles      prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "musclewise",
		subsystem:        "engine",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.calculations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "calculations_total",
		Help:        "Total number of successful calculations by operation",
		ConstLabels: m.constLabels,
	}, []string{"operation"})

	m.calculationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "calculation_errors_total",
		Help:        "Total number of rejected calculations by operation and error kind",
		ConstLabels: m.constLabels,
	}, []string{"operation", "kind"})

	m.calculationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "calculation_latency_milliseconds",
		Help:        "Histogram of calculation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"operation"})

	m.softFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "soft_failures_total",
		Help:        "Skipped inputs that did not abort a calculation (unknown exercise, missing baseline, ...)",
		ConstLabels: m.constLabels,
	}, []string{"operation", "reason"})

	m.musclesExceeded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "muscles_exceeded_baseline_total",
		Help:        "Muscles whose fatigue exceeded 100% of baseline",
		ConstLabels: m.constLabels,
	})

	m.baselineSuggestions = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "baseline_suggestions_total",
		Help:        "Baseline increase suggestions produced",
		ConstLabels: m.constLabels,
	})

	m.recommendations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recommendations_total",
		Help:        "Recommended exercises by safety partition",
		ConstLabels: m.constLabels,
	}, []string{"partition"})

	m.catalogExercises = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "catalog_exercises",
		Help:        "Number of exercises in the loaded catalog",
		ConstLabels: m.constLabels,
	})

	m.catalogMuscles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "catalog_muscles",
		Help:        "Number of muscles in the loaded baseline table",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP responses with status >= 400 by endpoint and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "memory_usage_bytes",
		Help:        "Current heap allocation in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        "goroutines",
		Help:        "Current number of goroutines",
		ConstLabels: m.constLabels,
	})
}

// RecordCalculation counts a successful calculation and its latency.
func (m *Manager) RecordCalculation(operation string, latencyMs float64) {
	m.calculations.WithLabelValues(operation).Inc()
	m.calculationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordCalculationError counts a rejected calculation.
func (m *Manager) RecordCalculationError(operation, kind string) {
	m.calculationErrors.WithLabelValues(operation, kind).Inc()
}

// RecordSoftFailure counts an input that was skipped without failing.
func (m *Manager) RecordSoftFailure(operation, reason string) {
	m.softFailures.WithLabelValues(operation, reason).Inc()
}

// RecordCalculation counts a successful calculation on the global manager.
func RecordCalculation(operation string, latencyMs float64) {
	globalManager.RecordCalculation(operation, latencyMs)
}

// RecordCalculationError counts a rejected calculation on the global manager.
func RecordCalculationError(operation, kind string) {
	globalManager.RecordCalculationError(operation, kind)
}

// RecordSoftFailure counts a skipped input on the global manager.
func RecordSoftFailure(operation, reason string) {
	globalManager.RecordSoftFailure(operation, reason)
}

// RecordMusclesExceeded adds n muscles that went past their baseline.
func RecordMusclesExceeded(n int) {
	globalManager.musclesExceeded.Add(float64(n))
}

// RecordBaselineSuggestions adds n produced suggestions.
func RecordBaselineSuggestions(n int) {
	globalManager.baselineSuggestions.Add(float64(n))
}

// RecordRecommendations adds safe and unsafe recommendation counts.
func RecordRecommendations(safe, unsafe int) {
	globalManager.recommendations.WithLabelValues("safe").Add(float64(safe))
	globalManager.recommendations.WithLabelValues("unsafe").Add(float64(unsafe))
}

// UpdateCatalogSize sets the loaded catalog gauges.
func UpdateCatalogSize(exercises, muscles int) {
	globalManager.catalogExercises.Set(float64(exercises))
	globalManager.catalogMuscles.Set(float64(muscles))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
