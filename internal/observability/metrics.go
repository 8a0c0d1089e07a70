// Package observability exposes process-level Prometheus metrics and
// the HTTP instrumentation middleware.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	importCompletedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "siteboard",
		Subsystem: "importer",
		Name:      "last_import_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful CSV import.",
	})
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "siteboard",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "status"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "siteboard",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(importCompletedGauge, httpRequestsTotal, httpRequestDuration)
}

// RecordImportCompleted updates the import watermark gauge.
func RecordImportCompleted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	importCompletedGauge.Set(float64(ts.Unix()))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHTTP wraps a handler with request counting and latency
// observation. The route label is the registered pattern, not the raw
// URL, to keep cardinality bounded.
func InstrumentHTTP(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
