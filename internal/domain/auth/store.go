package auth

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned when no account matches an email.
var ErrAccountNotFound = errors.New("account not found")

// AccountStore provides account lookup for credential checks.
// This interface is defined in the domain to avoid circular imports.
// Implementations: in-memory (seeded from config).
type AccountStore interface {
	// GetAccount retrieves an account by normalized email.
	// Returns ErrAccountNotFound if the account doesn't exist.
	GetAccount(ctx context.Context, email string) (*Account, error)

	// ListAccounts returns all accounts.
	ListAccounts(ctx context.Context) ([]*Account, error)
}
