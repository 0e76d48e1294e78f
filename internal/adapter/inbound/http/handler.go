package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/pharmaledger/pharmaledger/internal/ctxkey"
	"github.com/pharmaledger/pharmaledger/internal/domain/login"
	"github.com/pharmaledger/pharmaledger/internal/domain/ratelimit"
	"github.com/pharmaledger/pharmaledger/internal/domain/session"
	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
	"github.com/pharmaledger/pharmaledger/internal/service"
)

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// MessageBlankBatch is shown when the batch number field is empty.
const MessageBlankBatch = "Please enter a batch number"

// MessageNoCode is shown when a scanned payload carries no batch code.
const MessageNoCode = "No valid code detected. Please try again."

// API serves the PharmaLedger JSON endpoints.
type API struct {
	logins   *service.LoginRegistry
	sessions *session.Store
	verifier *verification.Flow
	stats    *service.StatsService
	limiter  ratelimit.RateLimiter
	limit    ratelimit.Config
	metrics  *Metrics
	logger   *slog.Logger
}

// APIOption configures an API dependency.
type APIOption func(*API)

// WithStatsService sets the counters exposed on /api/stats.
func WithStatsService(s *service.StatsService) APIOption {
	return func(a *API) { a.stats = s }
}

// WithLoginRateLimit throttles login attempts per client IP and per email.
// A nil limiter or an invalid config disables throttling.
func WithLoginRateLimit(l ratelimit.RateLimiter, cfg ratelimit.Config) APIOption {
	return func(a *API) {
		if l != nil && cfg.Valid() {
			a.limiter = l
			a.limit = cfg
		}
	}
}

// WithAPILogger sets the logger.
func WithAPILogger(l *slog.Logger) APIOption {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAPI creates the API handler set. logins hands out the per-client login
// flow, sessions is the base session store whose key is suffixed with the
// client ID, and verifier runs batch checks.
func NewAPI(logins *service.LoginRegistry, sessions *session.Store, verifier *verification.Flow, opts ...APIOption) *API {
	a := &API{
		logins:   logins,
		sessions: sessions,
		verifier: verifier,
		stats:    service.NewStatsService(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// setMetrics is called by the server once its registry exists.
func (a *API) setMetrics(m *Metrics) {
	a.metrics = m
}

// Routes registers the API endpoints on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/validate", a.handleValidate)
	mux.HandleFunc("POST /api/password-strength", a.handlePasswordStrength)
	mux.HandleFunc("GET /api/session", a.handleGetSession)
	mux.HandleFunc("POST /api/session/continue", a.handleContinueSession)
	mux.HandleFunc("DELETE /api/session", a.handleClearSession)
	mux.HandleFunc("POST /api/verify", a.handleVerify)
	mux.HandleFunc("POST /api/scan", a.handleScan)
	mux.HandleFunc("GET /api/stats", a.handleStats)
}

// --- login ---

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// LoginResponse is the JSON body of POST /api/login.
type LoginResponse struct {
	Status      string             `json:"status"`
	Message     string             `json:"message"`
	Email       string             `json:"email,omitempty"`
	Role        string             `json:"role,omitempty"`
	DisplayName string             `json:"displayName,omitempty"`
	Redirect    string             `json:"redirect,omitempty"`
	Remembered  bool               `json:"remembered"`
	Errors      []login.FieldError `json:"errors,omitempty"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.readJSON(w, r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if retry, ok := a.allowLogin(r, req.Email); !ok {
		a.countLogin("throttled")
		if a.stats != nil {
			a.stats.RecordRateLimited()
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(retry.Seconds()))))
		a.respondError(w, http.StatusTooManyRequests, "Too many login attempts. Please wait and try again.")
		return
	}

	flow := a.logins.Flow(ctxkey.ClientID(r.Context()))
	if a.metrics != nil {
		a.metrics.ActiveLoginFlows.Set(float64(a.logins.Len()))
	}

	out, err := flow.Submit(r.Context(), login.Credential{
		Identity: req.Email,
		Secret:   req.Password,
		Remember: req.RememberMe,
	})

	resp := LoginResponse{
		Status:      out.Status.String(),
		Message:     out.Message,
		Email:       out.Identity,
		Role:        string(out.Role),
		DisplayName: out.DisplayName,
		Redirect:    string(out.Redirect),
		Remembered:  out.Remembered,
		Errors:      out.Fields,
	}

	status := http.StatusOK
	switch {
	case err == nil:
		a.countLogin("succeeded")
		if a.stats != nil {
			a.stats.RecordLoginSucceeded()
		}
	case login.IsValidationError(err):
		status = http.StatusBadRequest
		a.countLogin("invalid")
		if a.stats != nil {
			a.stats.RecordLoginInvalid()
		}
	case errors.Is(err, login.ErrAuthenticationFailed):
		status = http.StatusUnauthorized
		a.countLogin("declined")
		if a.stats != nil {
			a.stats.RecordLoginDeclined()
		}
	case errors.Is(err, login.ErrAttemptInProgress):
		status = http.StatusConflict
		a.countLogin("busy")
	default:
		status = http.StatusServiceUnavailable
		a.countLogin("error")
		if a.stats != nil {
			a.stats.RecordLoginError()
		}
		LoggerFromContext(r.Context()).Warn("login failed", "error", err)
	}

	a.respondJSON(w, status, resp)
}

// allowLogin checks the IP and email throttling keys. Both are consumed so
// a single caller cannot spread attempts across addresses or accounts.
func (a *API) allowLogin(r *http.Request, email string) (time.Duration, bool) {
	if a.limiter == nil {
		return 0, true
	}

	keys := []string{ratelimit.FormatKey(ratelimit.KeyTypeIP, ctxkey.IPAddress(r.Context()))}
	if email != "" {
		keys = append(keys, ratelimit.FormatKey(ratelimit.KeyTypeIdentity, email))
	}

	var retry time.Duration
	allowed := true
	for _, key := range keys {
		res, err := a.limiter.Allow(r.Context(), key, a.limit)
		if err != nil {
			// Throttling is best effort; never lock users out on limiter failure.
			LoggerFromContext(r.Context()).Warn("rate limiter error", "error", err)
			continue
		}
		if !res.Allowed {
			allowed = false
			retry = max(retry, res.RetryAfter)
		}
	}

	if s, ok := a.limiter.(interface{ Size() int }); ok && a.metrics != nil {
		a.metrics.RateLimitKeys.Set(float64(s.Size()))
	}
	return retry, allowed
}

func (a *API) countLogin(outcome string) {
	if a.metrics != nil {
		a.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

type validateRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Submitted bool   `json:"submitted"`
}

// ValidateResponse is the JSON body of POST /api/validate.
type ValidateResponse struct {
	Valid  bool               `json:"valid"`
	Errors []login.FieldError `json:"errors"`
}

func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := a.readJSON(w, r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var fields []login.FieldError
	if req.Submitted {
		fields = login.Validate(login.Credential{Identity: req.Email, Secret: req.Password}).Errors
	} else {
		if fe := login.ValidateField(login.FieldIdentity, req.Email); fe != nil {
			fields = append(fields, *fe)
		}
		if fe := login.ValidateField(login.FieldSecret, req.Password); fe != nil {
			fields = append(fields, *fe)
		}
	}
	if fields == nil {
		fields = []login.FieldError{}
	}

	a.respondJSON(w, http.StatusOK, ValidateResponse{Valid: len(fields) == 0, Errors: fields})
}

func (a *API) handlePasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := a.readJSON(w, r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	a.respondJSON(w, http.StatusOK, login.PasswordStrength(req.Password))
}

// --- session ---

// ContinueResponse is the JSON body of POST /api/session/continue.
type ContinueResponse struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Redirect string `json:"redirect"`
}

func (a *API) sessionCheck(r *http.Request) *service.SessionCheck {
	key := ClientSessionKey(a.sessions.Key(), ctxkey.ClientID(r.Context()))
	return service.NewSessionCheck(a.sessions.ForKey(key), LoggerFromContext(r.Context()))
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	prompt, err := a.sessionCheck(r).Check(r.Context())
	if service.IsNoSession(err) {
		a.respondError(w, http.StatusNotFound, "No saved session")
		return
	}
	if err != nil {
		a.sessionUnavailable(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, prompt)
}

func (a *API) handleContinueSession(w http.ResponseWriter, r *http.Request) {
	dest, sess, err := a.sessionCheck(r).Continue(r.Context())
	if service.IsNoSession(err) {
		a.respondError(w, http.StatusNotFound, "No saved session")
		return
	}
	if err != nil {
		a.sessionUnavailable(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, ContinueResponse{
		Email:    sess.Identity,
		Role:     string(sess.Role),
		Redirect: string(dest),
	})
}

func (a *API) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := a.sessionCheck(r).NewLogin(r.Context()); err != nil {
		a.sessionUnavailable(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) sessionUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	LoggerFromContext(r.Context()).Error("session store failed", "error", err)
	a.respondError(w, http.StatusServiceUnavailable, "Session storage is unavailable")
}

// --- verification ---

// VerifyResponse is the JSON body of POST /api/verify and POST /api/scan.
type VerifyResponse struct {
	verification.Result
	Label    string `json:"label"`
	Headline string `json:"headline"`
	Details  string `json:"details,omitempty"`
}

func newVerifyResponse(res verification.Result) VerifyResponse {
	return VerifyResponse{
		Result:   res,
		Label:    res.Status.Label(),
		Headline: res.Headline(),
		Details:  res.Details(),
	}
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BatchNumber string `json:"batchNumber"`
	}
	if err := a.readJSON(w, r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := a.verifier.Verify(r.Context(), req.BatchNumber)
	a.writeVerification(w, r, res, err)
}

func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	frame, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		a.respondError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	res, err := a.verifier.Scan(r.Context(), frame)
	a.writeVerification(w, r, res, err)
}

func (a *API) writeVerification(w http.ResponseWriter, r *http.Request, res verification.Result, err error) {
	switch {
	case err == nil:
		a.countVerification(string(res.Status))
		if a.stats != nil {
			a.stats.RecordVerification(res.Status)
		}
		a.respondJSON(w, http.StatusOK, newVerifyResponse(res))
	case errors.Is(err, verification.ErrBlankInput):
		a.countVerification(string(verification.StatusEmpty))
		a.respondError(w, http.StatusBadRequest, MessageBlankBatch)
	case errors.Is(err, verification.ErrNoCodeDetected):
		a.countVerification(string(verification.StatusEmpty))
		a.respondError(w, http.StatusUnprocessableEntity, MessageNoCode)
	case errors.Is(err, verification.ErrVerifierUnavailable):
		a.countVerification("error")
		if a.stats != nil {
			a.stats.RecordVerifyError()
		}
		a.respondError(w, http.StatusServiceUnavailable, verification.MessageUnavailable)
	default:
		LoggerFromContext(r.Context()).Warn("scan failed", "error", err)
		a.countVerification("error")
		a.respondError(w, http.StatusUnprocessableEntity, MessageNoCode)
	}
}

func (a *API) countVerification(status string) {
	if a.metrics != nil {
		a.metrics.Verifications.WithLabelValues(status).Inc()
	}
}

func (a *API) handleStats(w http.ResponseWriter, _ *http.Request) {
	if a.stats == nil {
		a.respondJSON(w, http.StatusOK, service.Stats{Verifications: map[string]int64{}})
		return
	}
	a.respondJSON(w, http.StatusOK, a.stats.GetStats())
}

// --- JSON helper methods ---

// respondJSON writes a JSON response with the given status code and data.
func (a *API) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a JSON error response with the given status code and message.
func (a *API) respondError(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes a size-limited request body into v.
func (a *API) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(v)
}
