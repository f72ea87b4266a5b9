package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the dashboard instruments. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	trackerRequests        *prometheus.CounterVec
	trackerRequestDuration *prometheus.HistogramVec
	circuitState           *prometheus.GaugeVec

	rowOpsPending  *prometheus.GaugeVec
	rowOpsRejected *prometheus.CounterVec
	staleDropped   *prometheus.CounterVec
	rosterSize     prometheus.Gauge
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "student_tracker",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})

	m.trackerRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracker_requests_total",
		Help:      "Total number of tracker API calls by operation and outcome",
	}, []string{"operation", "outcome"})

	m.trackerRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracker_request_duration_seconds",
		Help:      "Tracker API call duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})

	m.circuitState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"breaker"})

	m.rowOpsPending = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "row_operations_pending",
		Help:      "Number of per-row operations currently in flight",
	}, []string{"kind"})

	m.rowOpsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "row_operations_rejected_total",
		Help:      "Per-row operations refused because one of the same kind was in flight",
	}, []string{"kind"})

	m.staleDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_responses_dropped_total",
		Help:      "Responses discarded because a newer request superseded them",
	}, []string{"view"})

	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_students",
		Help:      "Number of students in the last committed roster",
	})
}

func (m *Manager) RecordHTTPRequest(route, method string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Manager) RecordTrackerRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.trackerRequests.WithLabelValues(operation, outcome).Inc()
	m.trackerRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Manager) SetCircuitState(breaker string, state float64) {
	if m == nil {
		return
	}
	m.circuitState.WithLabelValues(breaker).Set(state)
}

// RowOperationStarted and RowOperationFinished bracket one in-flight row operation.
func (m *Manager) RowOperationStarted(kind string) {
	if m == nil {
		return
	}
	m.rowOpsPending.WithLabelValues(kind).Inc()
}

func (m *Manager) RowOperationFinished(kind string) {
	if m == nil {
		return
	}
	m.rowOpsPending.WithLabelValues(kind).Dec()
}

func (m *Manager) RowOperationRejected(kind string) {
	if m == nil {
		return
	}
	m.rowOpsRejected.WithLabelValues(kind).Inc()
}

func (m *Manager) StaleResponseDropped(view string) {
	if m == nil {
		return
	}
	m.staleDropped.WithLabelValues(view).Inc()
}

func (m *Manager) SetRosterSize(count int) {
	if m == nil {
		return
	}
	m.rosterSize.Set(float64(count))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
