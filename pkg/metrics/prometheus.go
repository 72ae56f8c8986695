// Package metrics provides Prometheus metrics for the diamond simulation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the diamond service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Simulation
	gamesSimulated    prometheus.Counter
	gamesFailed       *prometheus.CounterVec
	gamesSkipped      *prometheus.CounterVec
	simulationLatency prometheus.Histogram
	pitchesThrown     *prometheus.CounterVec

	// Batches
	batches       *prometheus.CounterVec
	batchDuration prometheus.Histogram
	pendingGames  prometheus.Gauge
	universeDate  prometheus.Gauge
	deltasMerged  prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount prometheus.Gauge
	workerBusyCount   prometheus.Gauge
	workerFaults      prometheus.Counter

	// Repository
	repositoryWriteLatency prometheus.Histogram
	repositoryQueryLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
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
		namespace:        "diamond",
		subsystem:        "sim",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.gamesSimulated = m.counter("games_simulated_total", "Games simulated and committed")
	m.gamesFailed = m.counterVec("games_failed_total", "Games whose simulation failed, by violated invariant", "invariant")
	m.gamesSkipped = m.counterVec("games_skipped_total", "Due games skipped by a batch, by reason", "reason")
	m.simulationLatency = m.histogram("simulation_latency_milliseconds", "Wall time of one game simulation")
	m.pitchesThrown = m.counterVec("pitches_thrown_total", "Pitches thrown in committed games, by pitch type", "pitch_type")

	m.batches = m.counterVec("batches_total", "Batches run, by result", "result")
	m.batchDuration = m.histogram("batch_duration_milliseconds", "Wall time of one batch from query to commit")
	m.pendingGames = m.gauge("pending_games", "Unresolved games left after the last batch")
	m.universeDate = m.gauge("universe_date_unix_seconds", "Current simulated date of the universe")
	m.deltasMerged = m.counter("player_deltas_merged_total", "Player deltas merged into persistent state")

	m.queueSize = m.gauge("queue_size", "Jobs waiting in the simulation queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the simulation queue")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected by the queue")

	m.workerActiveCount = m.gauge("worker_active_count", "Workers in the pool")
	m.workerBusyCount = m.gauge("worker_busy_count", "Workers currently simulating a game")
	m.workerFaults = m.counter("worker_faults_total", "Simulations that panicked and were recovered")

	m.repositoryWriteLatency = m.histogram("repository_write_latency_milliseconds", "Latency of repository writes")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Latency of repository queries")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
}

// RecordGameSimulated increments the committed games counter.
func RecordGameSimulated() {
	globalManager.gamesSimulated.Inc()
}

// RecordGameFailed counts a failed simulation under the invariant it violated.
func RecordGameFailed(invariant string) {
	if invariant == "" {
		invariant = "unknown"
	}
	globalManager.gamesFailed.WithLabelValues(invariant).Inc()
}

// RecordGameSkipped counts a due game the batch did not simulate.
func RecordGameSkipped(reason string) {
	globalManager.gamesSkipped.WithLabelValues(reason).Inc()
}

// RecordSimulationLatency records one simulation's wall time.
func RecordSimulationLatency(latencyMs float64) {
	globalManager.simulationLatency.Observe(latencyMs)
}

// RecordPitches adds n pitches of the given type.
func RecordPitches(pitchType string, n int) {
	if n <= 0 {
		return
	}
	globalManager.pitchesThrown.WithLabelValues(pitchType).Add(float64(n))
}

// RecordBatch counts a finished batch by result.
func RecordBatch(result string) {
	globalManager.batches.WithLabelValues(result).Inc()
}

// RecordBatchDuration records one batch's wall time.
func RecordBatchDuration(latencyMs float64) {
	globalManager.batchDuration.Observe(latencyMs)
}

// UpdatePendingGames sets the number of unresolved games.
func UpdatePendingGames(count int) {
	globalManager.pendingGames.Set(float64(count))
}

// UpdateUniverseDate sets the simulated date as unix seconds.
func UpdateUniverseDate(unix int64) {
	globalManager.universeDate.Set(float64(unix))
}

// RecordDeltasMerged adds n merged player deltas.
func RecordDeltasMerged(n int) {
	globalManager.deltasMerged.Add(float64(n))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of workers in the pool.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// IncWorkerBusy marks one worker busy.
func IncWorkerBusy() {
	globalManager.workerBusyCount.Inc()
}

// DecWorkerBusy marks one worker idle again.
func DecWorkerBusy() {
	globalManager.workerBusyCount.Dec()
}

// RecordWorkerFault increments the recovered panic counter.
func RecordWorkerFault() {
	globalManager.workerFaults.Inc()
}

// RecordRepositoryWriteLatency records repository write latency.
func RecordRepositoryWriteLatency(latencyMs float64) {
	globalManager.repositoryWriteLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
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
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
