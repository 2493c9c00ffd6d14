package ratelimit

import (
	"context"
	"sync"
	"time"

	"veridoc/internal/domain"
)

const defaultReprobeInterval = 30 * time.Second

// Fallback prefers the durable limiter and degrades to the in-process
// one on any durable error, mirroring the cache's two-tier strategy.
// During a fallback period the two windows are independent, so the
// effective limit can briefly be looser; it never becomes unbounded.
type Fallback struct {
	durable domain.RateLimiter
	local   domain.RateLimiter

	mu        sync.Mutex
	reachable bool
	lastProbe time.Time
	reprobe   time.Duration
	now       func() time.Time
}

func NewFallback(durable, local domain.RateLimiter) *Fallback {
	return NewFallbackWithClock(durable, local, time.Now)
}

func NewFallbackWithClock(durable, local domain.RateLimiter, now func() time.Time) *Fallback {
	if local == nil {
		local = NewMemory(MemoryConfig{Now: now})
	}
	if now == nil {
		now = time.Now
	}
	return &Fallback{
		durable:   durable,
		local:     local,
		reachable: durable != nil,
		reprobe:   defaultReprobeInterval,
		now:       now,
	}
}

func (f *Fallback) CheckAndConsume(ctx context.Context, identity, action string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if f.useDurable() {
		decision, err := f.durable.CheckAndConsume(ctx, identity, action, limit, window)
		if err == nil {
			return decision, nil
		}
		f.markUnreachable()
	}
	return f.local.CheckAndConsume(ctx, identity, action, limit, window)
}

func (f *Fallback) useDurable() bool {
	if f.durable == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reachable {
		return true
	}
	if f.now().Sub(f.lastProbe) >= f.reprobe {
		f.reachable = true
		return true
	}
	return false
}

func (f *Fallback) markUnreachable() {
	f.mu.Lock()
	f.reachable = false
	f.lastProbe = f.now()
	f.mu.Unlock()
}

var _ domain.RateLimiter = (*Fallback)(nil)
