package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

// AccountStore implements auth.AccountStore with an in-memory map keyed by
// normalized email. Thread-safe for concurrent access. Seeded from
// configuration at startup.
type AccountStore struct {
	accounts map[string]*auth.Account
	mu       sync.RWMutex
}

// NewAccountStore creates an empty account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*auth.Account),
	}
}

// GetAccount retrieves an account by email (case-insensitive).
// Returns auth.ErrAccountNotFound if the account doesn't exist.
func (s *AccountStore) GetAccount(ctx context.Context, email string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[auth.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}

	// Return a copy to prevent mutation
	acctCopy := *acct
	return &acctCopy, nil
}

// ListAccounts returns copies of all accounts sorted by email.
func (s *AccountStore) ListAccounts(ctx context.Context) ([]*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*auth.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		acctCopy := *acct
		out = append(out, &acctCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// AddAccount adds or replaces an account (for seeding).
func (s *AccountStore) AddAccount(acct *auth.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	acctCopy := *acct
	acctCopy.Email = auth.NormalizeEmail(acct.Email)
	s.accounts[acctCopy.Email] = &acctCopy
}

// Compile-time interface verification.
var _ auth.AccountStore = (*AccountStore)(nil)
