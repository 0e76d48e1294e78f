package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pharmaledger/pharmaledger/internal/domain/session"
	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

const (
	// healthProbeKey is read from the record store to prove it answers.
	healthProbeKey = "healthcheck"
	// healthProbeBatch is looked up in the registry; not-found is healthy.
	healthProbeBatch = "HEALTHCHECK/0"

	healthProbeTimeout = 2 * time.Second

	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the JSON body of /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// HealthChecker probes the backends the API depends on. A probe that
// errors marks the service unhealthy; informational gauges never do.
type HealthChecker struct {
	version  string
	records  session.RecordStore
	verifier verification.BatchVerifier
	gauges   map[string]func() int
}

// HealthOption configures a HealthChecker.
type HealthOption func(*HealthChecker)

// WithRecordProbe checks the session record backend.
func WithRecordProbe(records session.RecordStore) HealthOption {
	return func(h *HealthChecker) { h.records = records }
}

// WithRegistryProbe checks the batch registry.
func WithRegistryProbe(v verification.BatchVerifier) HealthOption {
	return func(h *HealthChecker) { h.verifier = v }
}

// WithGauge reports the value of fn under name.
func WithGauge(name string, fn func() int) HealthOption {
	return func(h *HealthChecker) {
		if fn != nil {
			h.gauges[name] = fn
		}
	}
}

// NewHealthChecker creates a HealthChecker. Components without an option
// are reported as "not configured".
func NewHealthChecker(version string, opts ...HealthOption) *HealthChecker {
	h := &HealthChecker{version: version, gauges: make(map[string]func() int)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Check runs every probe.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	resp := HealthResponse{Status: statusHealthy, Checks: make(map[string]string), Version: h.version}

	probe := func(name string, configured bool, fn func(context.Context) error) {
		if !configured {
			resp.Checks[name] = "not configured"
			return
		}
		ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			resp.Checks[name] = "error: " + err.Error()
			resp.Status = statusUnhealthy
			return
		}
		resp.Checks[name] = "ok"
	}

	probe("session_store", h.records != nil, func(ctx context.Context) error {
		_, err := h.records.Get(ctx, healthProbeKey)
		if errors.Is(err, session.ErrRecordNotFound) {
			return nil
		}
		return err
	})
	probe("batch_registry", h.verifier != nil, func(ctx context.Context) error {
		_, err := h.verifier.Lookup(ctx, healthProbeBatch)
		return err
	})

	for name, fn := range h.gauges {
		resp.Checks[name] = strconv.Itoa(fn())
	}
	return resp
}

// Handler serves Check as JSON, with 503 when unhealthy.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check(r.Context())
		code := http.StatusOK
		if health.Status != statusHealthy {
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, health)
	})
}

// healthHandler is the fallback when no checker is configured.
func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: statusHealthy})
	})
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
