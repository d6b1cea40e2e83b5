// Package metrics provides Prometheus metrics for the pairank ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// answerBuckets covers human response latency, from a snap decision to a long think.
var answerBuckets = []float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 300000} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the ranking service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ranking progress
	itemsAdded           prometheus.Counter
	itemsTotal           prometheus.Gauge
	itemsLocked          prometheus.Gauge
	comparisonsRequested prometheus.Counter
	comparisonsResolved  prometheus.Counter
	comparisonsCancelled prometheus.Counter
	passesStarted        prometheus.Counter
	sortsCompleted       prometheus.Counter
	answerLatency        prometheus.Histogram

	// Data quality
	rejections     *prometheus.CounterVec
	cyclesDetected prometheus.Counter

	// Scheduler
	queueLength      prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueRejected    *prometheus.CounterVec
	pendingQuestions prometheus.Gauge
	operationLatency *prometheus.HistogramVec

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Gauge
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
		namespace:        "pairank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.itemsAdded = m.counter("items_added_total", "Total number of items added to the ranking")
	m.itemsTotal = m.gauge("items", "Current number of ranked items")
	m.itemsLocked = m.gauge("items_locked", "Current number of items whose rank is fully determined")
	m.comparisonsRequested = m.counter("comparisons_requested_total", "Total number of comparisons put to the decision-maker")
	m.comparisonsResolved = m.counter("comparisons_resolved_total", "Total number of comparisons answered with a valid side")
	m.comparisonsCancelled = m.counter("comparisons_cancelled_total", "Total number of open comparisons discarded without an answer")
	m.passesStarted = m.counter("passes_started_total", "Total number of passes started (per-pass flags reset)")
	m.sortsCompleted = m.counter("sorts_completed_total", "Total number of times the ranking reached a fully locked order")

	m.answerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "answer_latency_milliseconds",
		Help:        "Time between a comparison being opened and its answer",
		Buckets:     answerBuckets,
		ConstLabels: m.constLabels,
	})

	m.rejections = m.counterVec("submissions_rejected_total", "Comparison submissions rejected by reason", "reason")
	m.cyclesDetected = m.counter("cycles_detected_total", "Submissions that would have made the comparison log cyclic")

	m.queueLength = m.gauge("scheduler_queue_length", "Operations waiting in the scheduler queue")
	m.queueCapacity = m.gauge("scheduler_queue_capacity", "Maximum number of queued scheduler operations")
	m.queueEnqueued = m.counter("scheduler_enqueued_total", "Total number of operations accepted by the scheduler")
	m.queueRejected = m.counterVec("scheduler_rejected_total", "Operations the scheduler refused to queue", "reason")
	m.pendingQuestions = m.gauge("scheduler_pending_questions", "1 while a comparison awaits an answer")

	m.operationLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "operation_duration_milliseconds",
			Help:        "Scheduler operation execution time by kind, including any wait for an answer",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"kind"},
	)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
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

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")

	m.memoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "memory_bytes",
		Help: "Heap bytes allocated and in use", ConstLabels: m.constLabels,
	})
	m.goroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "goroutines",
		Help: "Current number of goroutines", ConstLabels: m.constLabels,
	})
	m.gcPauseTime = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", Name: "gc_pause_milliseconds",
		Help: "Average GC pause time", ConstLabels: m.constLabels,
	})
}

// RecordItemAdded increments the items added counter and sets the item gauge.
func RecordItemAdded(total int) {
	globalManager.itemsAdded.Inc()
	globalManager.itemsTotal.Set(float64(total))
}

// UpdateItemsLocked sets the number of locked items.
func UpdateItemsLocked(count int) {
	globalManager.itemsLocked.Set(float64(count))
}

// RecordComparisonRequested increments the requested comparisons counter.
func RecordComparisonRequested() {
	globalManager.comparisonsRequested.Inc()
}

// RecordComparisonResolved increments the resolved counter and observes the answer latency.
func RecordComparisonResolved(latencyMs float64) {
	globalManager.comparisonsResolved.Inc()
	globalManager.answerLatency.Observe(latencyMs)
}

// RecordComparisonCancelled increments the cancelled comparisons counter.
func RecordComparisonCancelled() {
	globalManager.comparisonsCancelled.Inc()
}

// RecordPassStarted increments the pass counter.
func RecordPassStarted() {
	globalManager.passesStarted.Inc()
}

// RecordSortCompleted increments the completed sorts counter.
func RecordSortCompleted() {
	globalManager.sortsCompleted.Inc()
}

// RecordRejection records a rejected submission with its reason.
func RecordRejection(reason string) {
	globalManager.rejections.WithLabelValues(reason).Inc()
}

// RecordCycleDetected increments the cycle counter.
func RecordCycleDetected() {
	globalManager.cyclesDetected.Inc()
}

// UpdateQueueLength sets the current scheduler queue length.
func UpdateQueueLength(n int) {
	globalManager.queueLength.Set(float64(n))
}

// UpdateQueueCapacity sets the scheduler queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the accepted operation counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueRejected records an operation the queue refused.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdatePendingQuestion flags whether a comparison is open.
func UpdatePendingQuestion(open bool) {
	if open {
		globalManager.pendingQuestions.Set(1)
		return
	}
	globalManager.pendingQuestions.Set(0)
}

// RecordOperationLatency records how long an operation of the given kind ran.
func RecordOperationLatency(kind string, latencyMs float64) {
	globalManager.operationLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// UpdateSystemMemoryUsage sets the allocated heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	globalManager.goroutineCount.Set(float64(n))
}

// RecordSystemGCPauseTime sets the average GC pause gauge.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.gcPauseTime.Set(ms)
}
