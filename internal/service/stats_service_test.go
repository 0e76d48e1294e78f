package service

import (
	"sync"
	"testing"

	"github.com/pharmaledger/pharmaledger/internal/domain/verification"
)

func TestStatsService_RecordAndGet(t *testing.T) {
	s := NewStatsService()

	s.RecordLoginSucceeded()
	s.RecordLoginSucceeded()
	s.RecordLoginDeclined()
	s.RecordLoginInvalid()
	s.RecordLoginError()
	s.RecordRateLimited()
	s.RecordVerifyError()
	s.RecordVerification(verification.StatusAuthentic)
	s.RecordVerification(verification.StatusCounterfeit)
	s.RecordVerification(verification.StatusCounterfeit)
	s.RecordVerification("")

	stats := s.GetStats()

	if stats.LoginSucceeded != 2 {
		t.Errorf("LoginSucceeded = %d, want 2", stats.LoginSucceeded)
	}
	if stats.LoginDeclined != 1 || stats.LoginInvalid != 1 || stats.LoginErrors != 1 {
		t.Errorf("login counters = %+v", stats)
	}
	if stats.RateLimited != 1 || stats.VerifyErrors != 1 {
		t.Errorf("RateLimited/VerifyErrors = %d/%d", stats.RateLimited, stats.VerifyErrors)
	}
	if stats.Verifications["authentic"] != 1 || stats.Verifications["counterfeit"] != 2 {
		t.Errorf("Verifications = %v", stats.Verifications)
	}
	if len(stats.Verifications) != 2 {
		t.Errorf("empty status should be skipped: %v", stats.Verifications)
	}
}

func TestStatsService_SnapshotIsCopy(t *testing.T) {
	s := NewStatsService()
	s.RecordVerification(verification.StatusAuthentic)

	snap := s.GetStats()
	snap.Verifications["authentic"] = 99

	if got := s.GetStats().Verifications["authentic"]; got != 1 {
		t.Errorf("snapshot mutation leaked: %d", got)
	}
}

func TestStatsService_Reset(t *testing.T) {
	s := NewStatsService()

	s.RecordLoginSucceeded()
	s.RecordLoginDeclined()
	s.RecordRateLimited()
	s.RecordVerification(verification.StatusEmpty)

	s.Reset()

	stats := s.GetStats()
	if stats.LoginSucceeded != 0 || stats.LoginDeclined != 0 || stats.RateLimited != 0 || len(stats.Verifications) != 0 {
		t.Errorf("after Reset, stats should be all zero: got %+v", stats)
	}
}

func TestStatsService_ConcurrentAccess(t *testing.T) {
	s := NewStatsService()

	const goroutines = 50
	const opsPerGoroutine = 200

	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				s.RecordLoginSucceeded()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				s.RecordVerification(verification.StatusAuthentic)
			}
		}()
	}
	wg.Wait()

	stats := s.GetStats()
	want := int64(goroutines * opsPerGoroutine)
	if stats.LoginSucceeded != want {
		t.Errorf("LoginSucceeded = %d, want %d", stats.LoginSucceeded, want)
	}
	if stats.Verifications["authentic"] != want {
		t.Errorf("authentic = %d, want %d", stats.Verifications["authentic"], want)
	}
}
