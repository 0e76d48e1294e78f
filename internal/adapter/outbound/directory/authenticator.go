// Package directory authenticates credentials against a local account
// directory seeded from configuration.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
	"github.com/pharmaledger/pharmaledger/internal/domain/login"
)

// Authenticator implements login.Authenticator over an auth.AccountStore.
type Authenticator struct {
	accounts  auth.AccountStore
	logger    *slog.Logger
	newToken  func() (string, error)
	dummyHash string
}

// NewAuthenticator creates an authenticator backed by accounts.
func NewAuthenticator(accounts auth.AccountStore, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{
		accounts: accounts,
		logger:   logger,
		newToken: auth.GenerateToken,
	}
	// Unknown identities are checked against this hash so they take as
	// long as known ones.
	if h, err := auth.HashPassword("pharmaledger-directory-timing"); err == nil {
		a.dummyHash = h
	}
	return a
}

// Authenticate implements login.Authenticator. Identity matching is
// case-insensitive.
func (a *Authenticator) Authenticate(ctx context.Context, identity, secret string) (login.AuthResult, error) {
	acct, err := a.accounts.GetAccount(ctx, auth.NormalizeEmail(identity))
	if errors.Is(err, auth.ErrAccountNotFound) {
		if a.dummyHash != "" {
			_, _ = auth.VerifyPassword(secret, a.dummyHash)
		}
		return login.AuthResult{OK: false, Reason: login.ReasonInvalidCredentials}, nil
	}
	if err != nil {
		return login.AuthResult{}, fmt.Errorf("lookup account: %w", err)
	}

	match, err := auth.VerifyPassword(secret, acct.PasswordHash)
	if err != nil {
		// A corrupt stored hash is an operator problem, not the user's.
		a.logger.Error("cannot verify stored password hash", "email", acct.Email, "error", err)
		return login.AuthResult{OK: false, Reason: login.ReasonServerError}, nil
	}
	if !match {
		return login.AuthResult{OK: false, Reason: login.ReasonInvalidCredentials}, nil
	}
	if acct.Disabled {
		return login.AuthResult{OK: false, Reason: login.ReasonAccountInactive}, nil
	}

	token, err := a.newToken()
	if err != nil {
		return login.AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return login.AuthResult{
		OK:          true,
		Role:        acct.Role,
		Token:       token,
		DisplayName: acct.Name,
	}, nil
}

// Compile-time interface verification.
var _ login.Authenticator = (*Authenticator)(nil)
