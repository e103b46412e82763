package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "ratelimit:"

// FixedWindow implements Limiter using a Redis counter per key.
//
// The first attempt in a window creates the counter with the window TTL;
// subsequent attempts increment it. Once the counter passes the limit the
// action is denied until the key expires.
type FixedWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewFixedWindow constructs a FixedWindow limiter allowing limit attempts
// per window.
func NewFixedWindow(client *redis.Client, limit int64, window time.Duration) *FixedWindow {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &FixedWindow{
		client: client,
		prefix: defaultPrefix,
		limit:  limit,
		window: window,
	}
}

// Allow records one attempt for key and reports whether it fits within the
// window.
func (f *FixedWindow) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	fk := f.prefix + key

	count, err := f.client.Incr(ctx, fk).Result()
	if err != nil {
		return false, 0, err
	}

	// Only the attempt that created the key sets the TTL, so the window is
	// anchored to the first attempt.
	if count == 1 {
		if err := f.client.Expire(ctx, fk, f.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count <= f.limit {
		return true, 0, nil
	}

	ttl, err := f.client.TTL(ctx, fk).Result()
	if err != nil {
		return false, f.window, err
	}
	if ttl < 0 {
		ttl = f.window
	}

	return false, ttl, nil
}
