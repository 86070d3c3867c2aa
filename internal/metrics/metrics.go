package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WindowEvaluationsTotal counts window activation checks by window type.
	WindowEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_window_evaluations_total",
			Help: "Total number of maintenance window activation checks",
		},
		[]string{"type"},
	)

	// ActiveWindows is the number of currently active windows as of the last
	// aggregation pass.
	ActiveWindows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "maintenance_windows_active",
			Help: "Number of maintenance windows active at the last aggregation",
		},
	)

	// AdhocWindowsTotal counts ad-hoc windows created through the factory.
	AdhocWindowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "maintenance_windows_adhoc_created_total",
			Help: "Total number of ad-hoc maintenance windows created",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, WindowEvaluationsTotal, ActiveWindows, AdhocWindowsTotal)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /api/v1/hosts/123/silence -> /api/v1/hosts/{id}/silence.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncWindowEvaluation counts one activation check for a window of the given type.
func IncWindowEvaluation(windowType string) {
	WindowEvaluationsTotal.WithLabelValues(windowType).Inc()
}

// SetActiveWindows records the active-window count from an aggregation pass.
func SetActiveWindows(n int) {
	ActiveWindows.Set(float64(n))
}

// IncAdhocCreated counts one successful ad-hoc window creation.
func IncAdhocCreated() {
	AdhocWindowsTotal.Inc()
}
