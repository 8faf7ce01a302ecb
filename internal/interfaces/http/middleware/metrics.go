package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/prometheus"
)

// RequestMetrics records every finished request into the HTTP metric
// vectors. The path label is the chi route pattern, not the raw URL, so
// /api/v1/profiles/{profileID} stays one series no matter how many profiles
// exist.
func RequestMetrics(metrics *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			active := metrics.HTTPActiveRequests.WithLabelValues(r.Method)
			active.Inc()
			defer active.Dec()

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			reqSize := r.ContentLength
			if reqSize < 0 {
				reqSize = 0
			}
			prometheus.RecordHTTPRequest(metrics, r.Method, path, sw.status, time.Since(start), reqSize, sw.bytes)
		})
	}
}
