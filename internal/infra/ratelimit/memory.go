package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"veridoc/internal/domain"
)

// Memory is the in-process sliding-window limiter. The mutex is the
// concurrency primitive that keeps concurrent requests from jointly
// observing remaining > 0 and exceeding the limit.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string][]time.Time
	maxKeys int
}

type MemoryConfig struct {
	Now     func() time.Time
	MaxKeys int
}

func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &Memory{
		now:     cfg.Now,
		windows: make(map[string][]time.Time),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *Memory) CheckAndConsume(_ context.Context, identity, action string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window <= 0 {
		window = time.Second
	}
	now := m.now()
	key := windowKey(identity, action)

	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := trimWindow(m.windows[key], now.Add(-window))
	if len(tokens) == 0 {
		delete(m.windows, key)
		if len(m.windows) >= m.maxKeys {
			m.gc(now, window)
		}
		if len(m.windows) >= m.maxKeys {
			return domain.RateLimitDecision{}, errors.New("rate limiter capacity exceeded")
		}
	}

	if len(tokens) >= limit {
		// Reject without consuming; reset follows the oldest surviving
		// token out of the window.
		m.windows[key] = tokens
		return domain.RateLimitDecision{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetIn:   resetIn(tokens[0], now, window),
		}, nil
	}

	tokens = append(tokens, now)
	m.windows[key] = tokens
	return domain.RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(tokens),
		ResetIn:   resetIn(tokens[0], now, window),
	}, nil
}

func (m *Memory) gc(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	for key, tokens := range m.windows {
		if live := trimWindow(tokens, cutoff); len(live) == 0 {
			delete(m.windows, key)
		} else {
			m.windows[key] = live
		}
	}
}

func trimWindow(tokens []time.Time, cutoff time.Time) []time.Time {
	drop := 0
	for drop < len(tokens) && !tokens[drop].After(cutoff) {
		drop++
	}
	if drop == 0 {
		return tokens
	}
	return append([]time.Time(nil), tokens[drop:]...)
}

func resetIn(oldest, now time.Time, window time.Duration) time.Duration {
	d := oldest.Add(window).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func windowKey(identity, action string) string {
	return identity + ":" + action
}

var _ domain.RateLimiter = (*Memory)(nil)
