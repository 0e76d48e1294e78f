package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
	"github.com/pharmaledger/pharmaledger/internal/domain/login"
	"github.com/pharmaledger/pharmaledger/internal/domain/session"
)

// Prompt is the "continue previous session?" offer shown at startup.
type Prompt struct {
	Identity  string    `json:"email"`
	Role      auth.Role `json:"role"`
	Welcome   string    `json:"welcome"`
	Question  string    `json:"question"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionCheck answers the startup prompt for one client: show the offer,
// continue into the remembered session, or discard it for a new login.
// The session store is injected; there is no process-wide session manager.
type SessionCheck struct {
	store  *session.Store
	logger *slog.Logger
}

// NewSessionCheck creates a SessionCheck over store.
func NewSessionCheck(store *session.Store, logger *slog.Logger) *SessionCheck {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCheck{store: store, logger: logger}
}

// Check returns the prompt for the stored session.
// Returns session.ErrNoSession when there is nothing to offer.
func (c *SessionCheck) Check(ctx context.Context) (*Prompt, error) {
	sess, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Prompt{
		Identity:  sess.Identity,
		Role:      sess.Role,
		Welcome:   fmt.Sprintf("Welcome back, %s", sess.Identity),
		Question:  "Continue with your previous session?",
		ExpiresAt: sess.ExpiresAt(),
	}, nil
}

// Continue resumes the stored session and returns where to go.
// Returns session.ErrNoSession if it expired in the meantime.
func (c *SessionCheck) Continue(ctx context.Context) (login.Destination, *session.Session, error) {
	sess, err := c.store.Load(ctx)
	if err != nil {
		return "", nil, err
	}
	dest := login.RedirectTarget(sess.Role)
	c.logger.Info("continuing remembered session", "identity", sess.Identity, "redirect", dest)
	return dest, sess, nil
}

// NewLogin discards the stored session so the user logs in again.
func (c *SessionCheck) NewLogin(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.logger.Info("remembered session cleared")
	return nil
}

// IsNoSession reports whether err means there is no usable session.
func IsNoSession(err error) bool {
	return errors.Is(err, session.ErrNoSession)
}
