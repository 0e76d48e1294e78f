package login

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
	"github.com/pharmaledger/pharmaledger/internal/domain/session"
)

// mockAuthenticator records calls and returns a canned answer.
type mockAuthenticator struct {
	calls  atomic.Int32
	result AuthResult
	err    error

	// When gate is non-nil, Authenticate signals entered and blocks on gate.
	entered chan struct{}
	gate    chan struct{}
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, identity, secret string) (AuthResult, error) {
	m.calls.Add(1)
	if m.gate != nil {
		m.entered <- struct{}{}
		<-m.gate
	}
	return m.result, m.err
}

// memRecords is a minimal session.RecordStore.
type memRecords struct {
	mu     sync.Mutex
	data   map[string][]byte
	putErr error
}

func newMemRecords() *memRecords {
	return &memRecords{data: make(map[string][]byte)}
}

func (m *memRecords) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, session.ErrRecordNotFound
	}
	return v, nil
}

func (m *memRecords) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func (m *memRecords) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var now = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func newTestFlow(a Authenticator, records session.RecordStore) (*Flow, *session.Store) {
	store := session.NewStore(records, session.WithClock(fixedClock(now)), session.WithLogger(discardLogger()))
	flow := NewFlow(a,
		WithSessionStore(store),
		WithClock(fixedClock(now)),
		WithLogger(discardLogger()),
	)
	return flow, store
}

var validCred = Credential{Identity: "admin@pharmaledger.com", Secret: "admin123"}

func TestSubmit_InvalidNeverCallsAuthenticator(t *testing.T) {
	creds := []Credential{
		{Identity: "not-an-email", Secret: "admin123"},
		{Identity: "admin@pharmaledger.com", Secret: "123"},
		{Identity: "", Secret: ""},
		{Identity: "a b@c.d", Secret: "abc", Remember: true},
	}

	for _, c := range creds {
		a := &mockAuthenticator{result: AuthResult{OK: true, Role: auth.RoleAdmin}}
		flow, _ := newTestFlow(a, newMemRecords())

		out, err := flow.Submit(context.Background(), c)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Submit(%+v) error = %v, want *ValidationError", c, err)
		}
		if len(ve.Fields) == 0 || len(out.Fields) != len(ve.Fields) {
			t.Errorf("Submit(%+v) fields = %+v / %+v", c, ve.Fields, out.Fields)
		}
		if a.calls.Load() != 0 {
			t.Errorf("Submit(%+v) called authenticator %d times", c, a.calls.Load())
		}
		if flow.State() != StateInvalid {
			t.Errorf("State() = %v, want invalid", flow.State())
		}
	}
}

func TestSubmit_SuccessRemembered(t *testing.T) {
	a := &mockAuthenticator{result: AuthResult{OK: true, Role: auth.RoleManufacturer, Token: "tok-1", DisplayName: "Demo Pharmaceuticals"}}
	records := newMemRecords()
	flow, store := newTestFlow(a, records)

	cred := Credential{Identity: "  manufacturer@demo.com ", Secret: "manu123", Remember: true}
	out, err := flow.Submit(context.Background(), cred)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Status != StateSucceeded || out.Redirect != DestinationManufacturer || out.Message != MessageSucceeded {
		t.Errorf("Submit() = %+v", out)
	}
	if !out.Remembered {
		t.Error("Remembered = false")
	}
	if flow.State() != StateSucceeded {
		t.Errorf("State() = %v, want succeeded", flow.State())
	}

	sess, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.Identity != "manufacturer@demo.com" || sess.Role != auth.RoleManufacturer || sess.Token != "tok-1" {
		t.Errorf("stored session = %+v", sess)
	}
	if !sess.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", sess.CreatedAt, now)
	}
}

func TestSubmit_SuccessNotRemembered(t *testing.T) {
	a := &mockAuthenticator{result: AuthResult{OK: true, Role: auth.RolePharmacy, Token: "t"}}
	flow, store := newTestFlow(a, newMemRecords())

	out, err := flow.Submit(context.Background(), Credential{Identity: "pharmacy@demo.com", Secret: "pharm123"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Remembered {
		t.Error("Remembered = true without remember flag")
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Load() error = %v, want ErrNoSession", err)
	}
}

func TestSubmit_SaveFailureStillSucceeds(t *testing.T) {
	a := &mockAuthenticator{result: AuthResult{OK: true, Role: auth.RoleAdmin, Token: "t"}}
	records := newMemRecords()
	records.putErr = errors.New("quota exceeded")
	flow, _ := newTestFlow(a, records)

	cred := validCred
	cred.Remember = true
	out, err := flow.Submit(context.Background(), cred)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Status != StateSucceeded || out.Remembered {
		t.Errorf("Submit() = %+v, want success without remembered session", out)
	}
}

func TestSubmit_UnknownRoleRedirectsHome(t *testing.T) {
	a := &mockAuthenticator{result: AuthResult{OK: true, Role: auth.Role("guest"), Token: "t"}}
	flow, _ := newTestFlow(a, newMemRecords())

	out, err := flow.Submit(context.Background(), validCred)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Redirect != DestinationDefault {
		t.Errorf("Redirect = %q, want %q", out.Redirect, DestinationDefault)
	}
}

func TestSubmit_Declined(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		wantMsg string
	}{
		{name: "no reason", reason: "", wantMsg: MessageDeclined},
		{name: "bad credentials", reason: ReasonInvalidCredentials, wantMsg: MessageDeclined},
		{name: "inactive", reason: ReasonAccountInactive, wantMsg: "Account is inactive. Please contact administrator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &mockAuthenticator{result: AuthResult{OK: false, Reason: tt.reason}}
			records := newMemRecords()
			flow, _ := newTestFlow(a, records)

			cred := validCred
			cred.Remember = true
			out, err := flow.Submit(context.Background(), cred)
			if !errors.Is(err, ErrAuthenticationFailed) {
				t.Fatalf("Submit() error = %v, want ErrAuthenticationFailed", err)
			}
			if out.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", out.Message, tt.wantMsg)
			}
			if flow.State() != StateFailed {
				t.Errorf("State() = %v, want failed", flow.State())
			}
			if len(records.data) != 0 {
				t.Error("declined login must not write a session")
			}
		})
	}
}

func TestSubmit_CollaboratorError(t *testing.T) {
	a := &mockAuthenticator{err: errors.New("connection refused")}
	flow, _ := newTestFlow(a, newMemRecords())

	out, err := flow.Submit(context.Background(), validCred)
	if !errors.Is(err, ErrCollaboratorUnavailable) {
		t.Fatalf("Submit() error = %v, want ErrCollaboratorUnavailable", err)
	}
	if out.Message != MessageUnavailable {
		t.Errorf("Message = %q, want %q", out.Message, MessageUnavailable)
	}

	// The flow accepts a new attempt afterwards.
	a.err = nil
	a.result = AuthResult{OK: true, Role: auth.RoleAdmin}
	if _, err := flow.Submit(context.Background(), validCred); err != nil {
		t.Errorf("retry Submit() error = %v", err)
	}
}

func TestSubmit_RejectsConcurrentAttempt(t *testing.T) {
	a := &mockAuthenticator{
		result:  AuthResult{OK: true, Role: auth.RoleAdmin},
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	flow, _ := newTestFlow(a, newMemRecords())

	done := make(chan error, 1)
	go func() {
		_, err := flow.Submit(context.Background(), validCred)
		done <- err
	}()

	<-a.entered
	if flow.State() != StateAuthenticating {
		t.Errorf("State() = %v, want authenticating", flow.State())
	}

	if _, err := flow.Submit(context.Background(), validCred); !errors.Is(err, ErrAttemptInProgress) {
		t.Errorf("second Submit() error = %v, want ErrAttemptInProgress", err)
	}

	// Reset is ignored while busy.
	flow.Reset()
	if flow.State() != StateAuthenticating {
		t.Errorf("State() after Reset = %v, want authenticating", flow.State())
	}

	close(a.gate)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if got := a.calls.Load(); got != 1 {
		t.Errorf("authenticator calls = %d, want 1", got)
	}

	flow.Reset()
	if flow.State() != StateIdle {
		t.Errorf("State() after Reset = %v, want idle", flow.State())
	}
}

func TestSubmit_WithoutSessionStore(t *testing.T) {
	a := &mockAuthenticator{result: AuthResult{OK: true, Role: auth.RoleAdmin}}
	flow := NewFlow(a, WithLogger(discardLogger()))

	cred := validCred
	cred.Remember = true
	out, err := flow.Submit(context.Background(), cred)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Remembered {
		t.Error("Remembered = true without a session store")
	}
}

func TestState_String(t *testing.T) {
	if StateAuthenticating.String() != "authenticating" || State(99).String() != "unknown" {
		t.Error("unexpected State.String()")
	}
}

// panickingAuthenticator panics on the first call and succeeds afterwards.
type panickingAuthenticator struct {
	calls atomic.Int32
}

func (p *panickingAuthenticator) Authenticate(ctx context.Context, identity, secret string) (AuthResult, error) {
	if p.calls.Add(1) == 1 {
		panic("directory index corrupted")
	}
	return AuthResult{OK: true, Role: auth.RolePharmacy, Token: "t"}, nil
}

func TestSubmit_AuthenticatorPanicReleasesFlow(t *testing.T) {
	a := &panickingAuthenticator{}
	flow, _ := newTestFlow(a, newMemRecords())

	out, err := flow.Submit(context.Background(), validCred)
	if !errors.Is(err, ErrCollaboratorUnavailable) {
		t.Fatalf("Submit() error = %v, want ErrCollaboratorUnavailable", err)
	}
	if out.Status != StateFailed || out.Message != MessageUnavailable {
		t.Errorf("Submit() = %+v, want failed with %q", out, MessageUnavailable)
	}
	if flow.State() != StateFailed {
		t.Errorf("State() = %v, want failed", flow.State())
	}

	out, err = flow.Submit(context.Background(), validCred)
	if err != nil {
		t.Fatalf("second Submit() error = %v, want nil", err)
	}
	if out.Status != StateSucceeded {
		t.Errorf("second Submit() status = %v, want succeeded", out.Status)
	}
}

func TestSubmit_TokenlessSessionNotRemembered(t *testing.T) {
	a := &mockAuthenticator{result: AuthResult{OK: true, Role: auth.RoleAdmin}}
	records := newMemRecords()
	flow, store := newTestFlow(a, records)

	cred := validCred
	cred.Remember = true
	out, err := flow.Submit(context.Background(), cred)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Status != StateSucceeded {
		t.Errorf("Status = %v, want succeeded", out.Status)
	}
	if out.Remembered {
		t.Error("Remembered = true for a session the store cannot hold")
	}
	if len(records.data) != 0 {
		t.Errorf("records = %v, want none written", records.data)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Load() error = %v, want ErrNoSession", err)
	}
}

func TestSubmit_TerminalStatesAcceptNewAttempt(t *testing.T) {
	tests := []struct {
		name  string
		first Credential
		authn *mockAuthenticator
		want  State
	}{
		{"after invalid", Credential{Identity: "bad", Secret: "x"}, &mockAuthenticator{result: AuthResult{OK: true, Role: auth.RoleAdmin}}, StateInvalid},
		{"after declined", validCred, &mockAuthenticator{result: AuthResult{OK: false, Reason: ReasonInvalidCredentials}}, StateFailed},
		{"after success", validCred, &mockAuthenticator{result: AuthResult{OK: true, Role: auth.RoleAdmin}}, StateSucceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, _ := newTestFlow(tt.authn, newMemRecords())

			_, _ = flow.Submit(context.Background(), tt.first)
			if flow.State() != tt.want {
				t.Fatalf("State() = %v, want %v", flow.State(), tt.want)
			}

			tt.authn.result = AuthResult{OK: true, Role: auth.RoleAdmin}
			if _, err := flow.Submit(context.Background(), validCred); err != nil {
				t.Errorf("Submit() from %v error = %v", tt.want, err)
			}
		})
	}
}
