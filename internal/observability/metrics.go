package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics initialises the registry and the base HTTP metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crestline_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crestline_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	registry.MustRegister(requests, duration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for registering custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Ledger counts journal activity. It satisfies the journal service's metrics
// port.
type Ledger struct {
	created  *prometheus.CounterVec
	posted   *prometheus.CounterVec
	reversed prometheus.Counter
}

// NewLedger registers the ledger counters against the metrics registry.
func (m *Metrics) NewLedger() *Ledger {
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crestline_ledger_entries_created_total",
		Help: "Journal entries created, by entry type.",
	}, []string{"type"})
	posted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crestline_ledger_entries_posted_total",
		Help: "Journal entries posted, by entry type.",
	}, []string{"type"})
	reversed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crestline_ledger_entries_reversed_total",
		Help: "Journal entries reversed.",
	})
	m.Registerer().MustRegister(created, posted, reversed)
	return &Ledger{created: created, posted: posted, reversed: reversed}
}

// EntryCreated increments the created counter.
func (l *Ledger) EntryCreated(entryType string) {
	if l != nil {
		l.created.WithLabelValues(entryType).Inc()
	}
}

// EntryPosted increments the posted counter.
func (l *Ledger) EntryPosted(entryType string) {
	if l != nil {
		l.posted.WithLabelValues(entryType).Inc()
	}
}

// EntryReversed increments the reversed counter.
func (l *Ledger) EntryReversed() {
	if l != nil {
		l.reversed.Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
