package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Store is the single-slot session register of one client.
// It owns the session record: other components go through Save, Load and
// Clear and never touch the RecordStore directly.
type Store struct {
	records RecordStore
	key     string
	clock   Clock
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the record key. Default: DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock sets the time source used for expiry checks.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store persisting through records.
func NewStore(records RecordStore, opts ...Option) *Store {
	s := &Store{
		records: records,
		key:     DefaultKey,
		clock:   realClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForKey returns a Store sharing the same backend and clock but bound to
// another record key. Used to give each client its own slot.
func (s *Store) ForKey(key string) *Store {
	c := *s
	if key != "" {
		c.key = key
	}
	return &c
}

// Key returns the record key this store reads and writes.
func (s *Store) Key() string {
	return s.key
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Save overwrites the stored session. A session Load would reject is not
// written; the error wraps ErrMalformedRecord and any stored session is
// left in place.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if err := Validate(sess); err != nil {
		return err
	}
	data, err := Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.records.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	s.logger.Debug("session saved", "key", s.key, "role", sess.Role)
	return nil
}

// Load returns the stored session if it is present, well-formed and
// unexpired. Otherwise it returns ErrNoSession and removes any malformed or
// expired record. Only backend read failures are returned as other errors.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	data, err := s.records.Get(ctx, s.key)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session record: %w", err)
	}

	sess, err := Unmarshal(data)
	if err != nil {
		s.logger.Warn("discarding malformed session record", "key", s.key, "error", err)
		s.discard(ctx)
		return nil, ErrNoSession
	}

	if sess.IsExpiredAt(s.clock.Now()) {
		s.logger.Debug("discarding expired session", "key", s.key, "created_at", sess.CreatedAt)
		s.discard(ctx)
		return nil, ErrNoSession
	}

	return sess, nil
}

// Clear removes the stored session unconditionally.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.records.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// discard deletes the record; failures are logged since Load already
// resolved to ErrNoSession.
func (s *Store) discard(ctx context.Context) {
	if err := s.records.Delete(ctx, s.key); err != nil {
		s.logger.Warn("failed to delete session record", "key", s.key, "error", err)
	}
}
