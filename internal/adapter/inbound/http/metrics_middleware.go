package http

import (
	"net/http"
	"strings"
	"time"
)

// endpointOther labels any path outside the API so scanners cannot
// inflate label cardinality.
const endpointOther = "other"

// MetricsMiddleware records request counts and latency per API endpoint.
// /metrics and /health are not recorded.
func MetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			endpoint := endpointLabel(r.URL.Path)
			metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
			metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, statusClass(rec.status)).Inc()
		})
	}
}

// knownEndpoints are the API paths reported by name.
var knownEndpoints = map[string]bool{
	"login":             true,
	"validate":          true,
	"password-strength": true,
	"session":           true,
	"session/continue":  true,
	"verify":            true,
	"scan":              true,
	"stats":             true,
}

// endpointLabel maps /api/session/continue to "session/continue".
func endpointLabel(path string) string {
	name, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return endpointOther
	}
	name = strings.TrimSuffix(name, "/")
	if knownEndpoints[name] {
		return name
	}
	return endpointOther
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// statusClass returns "2xx", "4xx" and so on.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
