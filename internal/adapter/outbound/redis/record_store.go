// Package redis stores session records in Redis so several server
// instances can share remembered sessions.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pharmaledger/pharmaledger/internal/domain/session"
)

// DefaultPrefix namespaces record keys.
const DefaultPrefix = "pharmaledger:"

// commands is the subset of the go-redis client the store uses.
type commands interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL is applied to every record. Zero keeps records until deleted.
	TTL time.Duration
	// DialTimeout bounds the startup ping. Default: 2s.
	DialTimeout time.Duration
}

// RecordStore implements session.RecordStore with Redis strings.
type RecordStore struct {
	client commands
	closer func() error
	prefix string
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, opts Options) (*RecordStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	s := newRecordStore(client, opts.TTL)
	s.closer = client.Close
	return s, nil
}

func newRecordStore(client commands, ttl time.Duration) *RecordStore {
	return &RecordStore{
		client: client,
		closer: func() error { return nil },
		prefix: DefaultPrefix,
		ttl:    ttl,
	}
}

func (s *RecordStore) key(k string) string {
	return s.prefix + k
}

// Get returns the record stored under key.
// Returns session.ErrRecordNotFound if the key doesn't exist.
func (s *RecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, session.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Put stores value under key with the configured TTL.
func (s *RecordStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *RecordStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RecordStore) Close() error {
	return s.closer()
}

// Compile-time interface verification.
var _ session.RecordStore = (*RecordStore)(nil)
