package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pharmaledger/pharmaledger/internal/domain/session"
)

// Sentinel errors for login attempts.
var (
	// ErrAttemptInProgress is returned when Submit is called while another
	// attempt on the same Flow is still running.
	ErrAttemptInProgress = errors.New("login attempt already in progress")

	// ErrAuthenticationFailed is returned when the authenticator declined
	// the credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrCollaboratorUnavailable is returned when the authenticator could
	// not be reached or returned an error.
	ErrCollaboratorUnavailable = errors.New("authenticator unavailable")
)

// Flow runs login attempts for one client. At most one attempt runs at a
// time; a Flow is safe for concurrent use.
type Flow struct {
	authenticator Authenticator
	sessions      *session.Store
	clock         session.Clock
	logger        *slog.Logger
	tracer        trace.Tracer

	mu    sync.Mutex
	state State
}

// Option configures a Flow.
type Option func(*Flow)

// WithSessionStore enables "remember me". Without a store, Remember is
// ignored.
func WithSessionStore(s *session.Store) Option {
	return func(f *Flow) { f.sessions = s }
}

// WithClock sets the time source for session timestamps.
func WithClock(c session.Clock) Option {
	return func(f *Flow) {
		if c != nil {
			f.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTracer sets the tracer used for attempt spans.
func WithTracer(t trace.Tracer) Option {
	return func(f *Flow) {
		if t != nil {
			f.tracer = t
		}
	}
}

// NewFlow creates a Flow using authenticator.
func NewFlow(authenticator Authenticator, opts ...Option) *Flow {
	f := &Flow{
		authenticator: authenticator,
		clock:         session.SystemClock(),
		logger:        slog.Default(),
		tracer:        otel.Tracer("github.com/pharmaledger/pharmaledger/login"),
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current state. After an attempt the flow stays in its
// terminal state (Succeeded, Failed or Invalid) until the next Submit or
// Reset; terminal states accept a new attempt exactly like Idle.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Reset returns a finished flow to Idle. It has no effect while an attempt
// is running.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.state.busy() {
		f.state = StateIdle
	}
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// begin claims the flow for one attempt.
func (f *Flow) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.busy() {
		return false
	}
	f.state = StateValidating
	return true
}

// authenticate calls the authenticator. A panic is converted into an error
// so the flow never stays stuck in StateAuthenticating.
func (f *Flow) authenticate(ctx context.Context, identity, secret string) (result AuthResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("authenticator panicked", "identity", identity, "panic", r)
			result = AuthResult{}
			err = fmt.Errorf("authenticator panic: %v", r)
		}
	}()
	return f.authenticator.Authenticate(ctx, identity, secret)
}

// Submit runs one login attempt.
//
// On success the returned Outcome carries the role, redirect target and
// success message, and the error is nil. Every failure returns an Outcome
// with a display message together with one of: *ValidationError,
// ErrAuthenticationFailed, ErrCollaboratorUnavailable, ErrAttemptInProgress.
// The authenticator is never called when validation fails.
func (f *Flow) Submit(ctx context.Context, c Credential) (Outcome, error) {
	if !f.begin() {
		return Outcome{Status: f.State(), Message: "A login attempt is already in progress."}, ErrAttemptInProgress
	}

	ctx, span := f.tracer.Start(ctx, "login.Submit")
	defer span.End()

	identity := strings.TrimSpace(c.Identity)
	span.SetAttributes(attribute.Bool("login.remember", c.Remember))

	if res := Validate(c); !res.Valid() {
		f.setState(StateInvalid)
		span.SetAttributes(attribute.String("login.status", StateInvalid.String()))
		return Outcome{
			Status:   StateInvalid,
			Identity: identity,
			Message:  MessageInvalid,
			Fields:   res.Errors,
		}, &ValidationError{Fields: res.Errors}
	}

	f.setState(StateAuthenticating)
	result, err := f.authenticate(ctx, identity, c.Secret)
	if err != nil {
		f.setState(StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "authenticator unavailable")
		f.logger.Warn("authenticator call failed", "identity", identity, "error", err)
		return Outcome{
			Status:   StateFailed,
			Identity: identity,
			Message:  MessageUnavailable,
		}, fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)
	}

	if !result.OK {
		f.setState(StateFailed)
		span.SetAttributes(
			attribute.String("login.status", StateFailed.String()),
			attribute.String("login.reason", result.Reason),
		)
		f.logger.Info("login declined", "identity", identity, "reason", result.Reason)
		return Outcome{
			Status:   StateFailed,
			Identity: identity,
			Message:  FailureMessage(result.Reason),
		}, ErrAuthenticationFailed
	}

	out := Outcome{
		Status:      StateSucceeded,
		Identity:    identity,
		Role:        result.Role,
		DisplayName: result.DisplayName,
		Redirect:    RedirectTarget(result.Role),
		Message:     MessageSucceeded,
	}

	if c.Remember && f.sessions != nil {
		sess := &session.Session{
			Identity:  identity,
			Role:      result.Role,
			Token:     result.Token,
			CreatedAt: f.clock.Now(),
		}
		if err := f.sessions.Save(ctx, sess); err != nil {
			// The login itself succeeded; only the shortcut is lost.
			f.logger.Warn("failed to remember session", "identity", identity, "error", err)
		} else {
			out.Remembered = true
		}
	}

	f.setState(StateSucceeded)
	span.SetAttributes(
		attribute.String("login.status", StateSucceeded.String()),
		attribute.String("login.role", string(result.Role)),
	)
	f.logger.Info("login succeeded", "identity", identity, "role", result.Role, "remembered", out.Remembered)
	return out, nil
}
