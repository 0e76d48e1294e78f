package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/memory"
	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
	"github.com/pharmaledger/pharmaledger/internal/domain/login"
	"github.com/pharmaledger/pharmaledger/internal/domain/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestSessionCheck(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	store := session.NewStore(memory.NewRecordStore(0), session.WithClock(clock), session.WithLogger(discardLogger()))
	check := NewSessionCheck(store, discardLogger())

	if _, err := check.Check(ctx); !IsNoSession(err) {
		t.Fatalf("Check() on empty store error = %v, want ErrNoSession", err)
	}

	_ = store.Save(ctx, &session.Session{
		Identity:  "pharmacy@demo.com",
		Role:      auth.RolePharmacy,
		Token:     "tok",
		CreatedAt: clock.now,
	})

	prompt, err := check.Check(ctx)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if prompt.Welcome != "Welcome back, pharmacy@demo.com" {
		t.Errorf("Welcome = %q", prompt.Welcome)
	}
	if !prompt.ExpiresAt.Equal(clock.now.Add(session.MaxAge)) {
		t.Errorf("ExpiresAt = %v", prompt.ExpiresAt)
	}

	dest, sess, err := check.Continue(ctx)
	if err != nil {
		t.Fatalf("Continue() error: %v", err)
	}
	if dest != login.DestinationPharmacy || sess.Token != "tok" {
		t.Errorf("Continue() = %q, %+v", dest, sess)
	}

	if err := check.NewLogin(ctx); err != nil {
		t.Fatalf("NewLogin() error: %v", err)
	}
	if _, _, err := check.Continue(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Continue() after NewLogin error = %v, want ErrNoSession", err)
	}
}

func TestSessionCheck_Expired(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
	store := session.NewStore(memory.NewRecordStore(0), session.WithClock(clock), session.WithLogger(discardLogger()))
	check := NewSessionCheck(store, discardLogger())

	_ = store.Save(ctx, &session.Session{Identity: "a@x.com", Role: auth.RoleAdmin, Token: "t", CreatedAt: clock.now})

	clock.now = clock.now.Add(23*time.Hour + 59*time.Minute)
	if _, err := check.Check(ctx); err != nil {
		t.Fatalf("Check() at 23h59m error: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := check.Check(ctx); !IsNoSession(err) {
		t.Errorf("Check() at 24h01m error = %v, want ErrNoSession", err)
	}
}
