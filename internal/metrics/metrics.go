package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	permissionDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permission_decisions_total",
			Help: "Permission engine verdicts by resource type.",
		},
		[]string{"resource_type", "allowed"},
	)

	permissionChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permission_changes_total",
			Help: "Role assignments and grant mutations by event type.",
		},
		[]string{"event_type"},
	)
)

var registered bool

// Init registers the collectors in the default registry. Safe to call once
// at startup; test code uses the package without registering.
func Init() {
	if registered {
		return
	}
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, permissionDecisions, permissionChanges)
	registered = true
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDecision records one engine verdict.
func ObserveDecision(resourceType string, allowed bool) {
	permissionDecisions.WithLabelValues(resourceType, strconv.FormatBool(allowed)).Inc()
}

// ObservePermissionChange records one mutation event published on the bus.
func ObservePermissionChange(eventType string) {
	permissionChanges.WithLabelValues(eventType).Inc()
}

// Instrument wraps an http.Handler with RPS, latency, and in-flight tracking.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code    int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.code = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}
