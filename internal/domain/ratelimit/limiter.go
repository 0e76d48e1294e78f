package ratelimit

import "context"

// RateLimiter checks and consumes attempts.
//
// Implementations use GCRA (Generic Cell Rate Algorithm), which spaces
// attempts evenly instead of resetting at window boundaries.
type RateLimiter interface {
	// Allow consumes one attempt for key under cfg. When the attempt is
	// rejected, RetryAfter tells the caller when to try again.
	Allow(ctx context.Context, key string, cfg Config) (Result, error)
}
