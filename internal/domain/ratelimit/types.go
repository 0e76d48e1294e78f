// Package ratelimit throttles login attempts.
package ratelimit

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Config defines a GCRA rate limit.
type Config struct {
	// Rate is the number of allowed attempts per Period.
	Rate int

	// Burst is the number of attempts allowed back to back.
	Burst int

	// Period is the window Rate applies to.
	Period time.Duration
}

// Valid reports whether the config can be enforced.
func (c Config) Valid() bool {
	return c.Rate > 0 && c.Period > 0
}

// Result is the outcome of one check.
type Result struct {
	Allowed bool

	// Remaining is how many more attempts fit in the current burst.
	Remaining int

	// RetryAfter is how long to wait before the next attempt is allowed.
	// Zero when Allowed is true.
	RetryAfter time.Duration

	// ResetAfter is how long until the bucket is full again.
	ResetAfter time.Duration
}

// KeyType identifies what a key throttles.
type KeyType string

const (
	// KeyTypeIP throttles by client address.
	KeyTypeIP KeyType = "ip"

	// KeyTypeIdentity throttles by the email being tried.
	KeyTypeIdentity KeyType = "identity"
)

const keyPrefix = "ratelimit"

// FormatKey returns "ratelimit:{type}:{hash}". The value is folded to lower
// case and hashed so raw emails and addresses are not retained as map keys.
func FormatKey(keyType KeyType, value string) string {
	sum := xxhash.Sum64String(strings.ToLower(strings.TrimSpace(value)))
	return keyPrefix + ":" + string(keyType) + ":" + strconv.FormatUint(sum, 16)
}
