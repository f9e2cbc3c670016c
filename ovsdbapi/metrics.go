package ovsdbapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ovsdbapi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ovsdbapi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	ovsdbCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ovsdbapi",
			Subsystem: "ovsdb",
			Name:      "calls_total",
			Help:      "Calls to the OVSDB server by method and outcome.",
		},
		[]string{"method", "result"},
	)
	ovsdbDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ovsdbapi",
			Subsystem: "ovsdb",
			Name:      "call_duration_seconds",
			Help:      "OVSDB call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	schemaCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ovsdbapi",
			Subsystem: "schema_cache",
			Name:      "lookups_total",
			Help:      "Schema cache lookups.",
		},
		[]string{"hit"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, ovsdbCalls, ovsdbDuration, schemaCacheHits)
	})
}

func recordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func recordCall(method string, err error, duration time.Duration) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = codeFor(err).name()
	}
	ovsdbCalls.WithLabelValues(method, result).Inc()
	ovsdbDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func recordSchemaLookup(hit bool) {
	RegisterMetrics()
	schemaCacheHits.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
