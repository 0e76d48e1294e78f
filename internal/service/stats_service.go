// Package service contains application services.
package service

import (
	"sync"
	"sync/atomic"

	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

// StatsService tracks runtime statistics using lock-free atomic counters.
// All counter operations are safe for concurrent access from multiple goroutines.
type StatsService struct {
	loginSucceeded atomic.Int64
	loginDeclined  atomic.Int64
	loginInvalid   atomic.Int64
	loginErrors    atomic.Int64
	rateLimited    atomic.Int64
	verifyErrors   atomic.Int64

	// Verification outcomes by status (mutex-protected map).
	mu       sync.Mutex
	verified map[verification.Status]int64
}

// NewStatsService creates a new StatsService with all counters initialized to zero.
func NewStatsService() *StatsService {
	return &StatsService{
		verified: make(map[verification.Status]int64),
	}
}

// RecordLoginSucceeded increments the successful login counter.
func (s *StatsService) RecordLoginSucceeded() { s.loginSucceeded.Add(1) }

// RecordLoginDeclined increments the declined login counter.
func (s *StatsService) RecordLoginDeclined() { s.loginDeclined.Add(1) }

// RecordLoginInvalid increments the counter of submissions rejected by validation.
func (s *StatsService) RecordLoginInvalid() { s.loginInvalid.Add(1) }

// RecordLoginError increments the authenticator error counter.
func (s *StatsService) RecordLoginError() { s.loginErrors.Add(1) }

// RecordRateLimited increments the throttled login counter.
func (s *StatsService) RecordRateLimited() { s.rateLimited.Add(1) }

// RecordVerifyError increments the verifier error counter.
func (s *StatsService) RecordVerifyError() { s.verifyErrors.Add(1) }

// RecordVerification increments the counter for status.
func (s *StatsService) RecordVerification(status verification.Status) {
	if status == "" {
		return
	}
	s.mu.Lock()
	s.verified[status]++
	s.mu.Unlock()
}

// Stats holds a snapshot of all counters at a point in time.
type Stats struct {
	LoginSucceeded int64            `json:"login_succeeded"`
	LoginDeclined  int64            `json:"login_declined"`
	LoginInvalid   int64            `json:"login_invalid"`
	LoginErrors    int64            `json:"login_errors"`
	RateLimited    int64            `json:"rate_limited"`
	VerifyErrors   int64            `json:"verify_errors"`
	Verifications  map[string]int64 `json:"verifications"`
}

// GetStats returns a snapshot of all counters.
// The snapshot is consistent per-counter but not atomically across all counters.
func (s *StatsService) GetStats() Stats {
	s.mu.Lock()
	v := make(map[string]int64, len(s.verified))
	for k, n := range s.verified {
		v[string(k)] = n
	}
	s.mu.Unlock()

	return Stats{
		LoginSucceeded: s.loginSucceeded.Load(),
		LoginDeclined:  s.loginDeclined.Load(),
		LoginInvalid:   s.loginInvalid.Load(),
		LoginErrors:    s.loginErrors.Load(),
		RateLimited:    s.rateLimited.Load(),
		VerifyErrors:   s.verifyErrors.Load(),
		Verifications:  v,
	}
}

// Reset sets all counters to zero.
func (s *StatsService) Reset() {
	s.loginSucceeded.Store(0)
	s.loginDeclined.Store(0)
	s.loginInvalid.Store(0)
	s.loginErrors.Store(0)
	s.rateLimited.Store(0)
	s.verifyErrors.Store(0)

	s.mu.Lock()
	s.verified = make(map[verification.Status]int64)
	s.mu.Unlock()
}
