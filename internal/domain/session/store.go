package session

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for session operations.
var (
	// ErrNoSession is returned by Store.Load when no usable session exists.
	// Missing, expired and malformed records all map to this error.
	ErrNoSession = errors.New("no session")

	// ErrRecordNotFound is returned by a RecordStore when the key is absent.
	ErrRecordNotFound = errors.New("record not found")

	// ErrMalformedRecord is returned by Unmarshal and Save when a record
	// does not match the session schema.
	ErrMalformedRecord = errors.New("malformed session record")
)

// RecordStore persists raw records by key, like browser local storage.
// This interface is defined in the domain to avoid circular imports.
// Implementations: in-memory, file, Redis.
type RecordStore interface {
	// Get returns the raw record stored under key.
	// Returns ErrRecordNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the record stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the record. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Clock is an injectable time source to enable deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return realClock{}
}
