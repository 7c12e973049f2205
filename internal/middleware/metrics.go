package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "billbuddy_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// Metrics records a latency histogram per request. Paths with embedded IDs
// should be mounted behind stable mux patterns so the label stays bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		requestDuration.WithLabelValues(
			r.Method,
			r.URL.Path,
			strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	})
}
