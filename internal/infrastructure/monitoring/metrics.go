package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the coordination core.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Worker metrics
	WorkersActive    prometheus.Gauge
	WorkersStarted   *prometheus.CounterVec
	WorkersRejected  *prometheus.CounterVec
	WorkersCompleted *prometheus.CounterVec
	WorkerDuration   *prometheus.HistogramVec

	// Memory metrics
	CacheBytes     prometheus.Gauge
	CacheEvictions prometheus.Counter
	CleanupCycles  prometheus.Counter
	TempFilesFreed prometheus.Counter

	// Event bus metrics
	EventsEmitted *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector on its own registry so
// multiple instances (tests included) never collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		registry:  reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizer_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "organizer_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		WorkersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "organizer_workers_active",
				Help: "Number of active background workers",
			},
		),
		WorkersStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizer_workers_started_total",
				Help: "Total workers admitted and started",
			},
			[]string{"type"},
		),
		WorkersRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizer_workers_rejected_total",
				Help: "Worker admissions rejected by policy",
			},
			[]string{"type", "reason"},
		),
		WorkersCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizer_workers_completed_total",
				Help: "Workers that reached a terminal status",
			},
			[]string{"type", "status"},
		),
		WorkerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "organizer_worker_duration_seconds",
				Help:    "Background worker run duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 15, 60, 180, 300, 600},
			},
			[]string{"type"},
		),

		CacheBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "organizer_cache_bytes",
				Help: "Total tracked cache size in bytes",
			},
		),
		CacheEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "organizer_cache_evictions_total",
				Help: "Caches cleared by idle or size eviction",
			},
		),
		CleanupCycles: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "organizer_cleanup_cycles_total",
				Help: "Completed memory reclamation cycles",
			},
		),
		TempFilesFreed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "organizer_temp_files_freed_total",
				Help: "Temporary files deleted during reclamation",
			},
		),

		EventsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "organizer_events_emitted_total",
				Help: "Events dispatched on the state bus",
			},
			[]string{"type"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "organizer_ws_connections",
				Help: "Active WebSocket event-stream connections",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "organizer_uptime_seconds",
				Help: "Coordinator uptime in seconds",
			},
		),
	}

	return m
}

// Handler returns the Prometheus exposition handler for this collector.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records metrics for a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWorkerStarted records an admitted worker.
func (m *Metrics) RecordWorkerStarted(workerType string) {
	m.WorkersStarted.WithLabelValues(workerType).Inc()
}

// RecordWorkerRejected records an admission rejection.
func (m *Metrics) RecordWorkerRejected(workerType, reason string) {
	m.WorkersRejected.WithLabelValues(workerType, reason).Inc()
}

// RecordWorkerTerminal records a worker reaching a terminal status.
func (m *Metrics) RecordWorkerTerminal(workerType, status string, duration time.Duration) {
	m.WorkersCompleted.WithLabelValues(workerType, status).Inc()
	m.WorkerDuration.WithLabelValues(workerType).Observe(duration.Seconds())
}

// RecordEvent records one dispatched event.
func (m *Metrics) RecordEvent(eventType string) {
	m.EventsEmitted.WithLabelValues(eventType).Inc()
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
