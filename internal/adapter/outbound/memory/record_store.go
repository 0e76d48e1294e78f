// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pharmaledger/pharmaledger/internal/domain/session"
)

// DefaultCleanupInterval is how often StartCleanup purges expired records.
const DefaultCleanupInterval = 1 * time.Minute

// RecordStore implements session.RecordStore on top of go-cache.
// Thread-safe for concurrent access. Records live only as long as the
// process. Expired records are invisible to Get immediately; StartCleanup
// reclaims their memory in the background.
type RecordStore struct {
	cache           *cache.Cache
	stopChan        chan struct{}
	wg              sync.WaitGroup
	once            sync.Once
	cleanupInterval time.Duration
}

// NewRecordStore creates a store whose records expire after ttl.
// A ttl of 0 keeps records until they are deleted.
func NewRecordStore(ttl time.Duration) *RecordStore {
	return NewRecordStoreWithConfig(ttl, DefaultCleanupInterval)
}

// NewRecordStoreWithConfig creates a store with a custom cleanup interval.
func NewRecordStoreWithConfig(ttl, cleanupInterval time.Duration) *RecordStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &RecordStore{
		// Janitor disabled: cleanup runs on our own goroutine so Stop can
		// wait for it.
		cache:           cache.New(ttl, 0),
		stopChan:        make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}
}

// Get returns a copy of the record stored under key.
// Returns session.ErrRecordNotFound if the key doesn't exist or expired.
func (s *RecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, session.ErrRecordNotFound
	}
	data := v.([]byte)
	return append([]byte(nil), data...), nil
}

// Put stores a copy of value under key, replacing any previous record.
func (s *RecordStore) Put(ctx context.Context, key string, value []byte) error {
	s.cache.SetDefault(key, append([]byte(nil), value...))
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *RecordStore) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Len returns the number of stored records, including expired ones not yet
// purged.
func (s *RecordStore) Len() int {
	return s.cache.ItemCount()
}

// StartCleanup starts the background goroutine that purges expired records.
// It stops when ctx is cancelled or Stop() is called.
func (s *RecordStore) StartCleanup(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.cache.DeleteExpired()
			}
		}
	}()
}

// Stop stops the cleanup goroutine and waits for it to exit.
// Safe to call multiple times.
func (s *RecordStore) Stop() {
	s.once.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

// Compile-time interface verification.
var _ session.RecordStore = (*RecordStore)(nil)
