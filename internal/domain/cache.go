package domain

import (
	"context"
	"time"
)

// Cache stores opaque serialized payloads with TTL semantics. The durable
// backend is authoritative when reachable; implementations may degrade to
// an in-process map with identical semantics. The cache is an
// optimization, not a dependency: callers must tolerate any error.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter admits or rejects one request against a sliding window
// keyed by (identity, action). A rejected request consumes nothing.
type RateLimiter interface {
	CheckAndConsume(ctx context.Context, identity, action string, limit int, window time.Duration) (RateLimitDecision, error)
}
