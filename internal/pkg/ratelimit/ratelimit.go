// Package ratelimit provides a Redis-backed fixed-window rate limiter.
//
// It is used to bound how often a single principal can trigger an expensive
// or abusable operation, such as requesting a fresh OTP delivery.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether an action identified by key may proceed.
type Limiter interface {
	// Allow records one attempt for key and reports whether it fits within
	// the configured window. When the limit is exceeded it also returns how
	// long the caller should wait before retrying.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
