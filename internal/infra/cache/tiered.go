package cache

import (
	"context"
	"sync"
	"time"

	"veridoc/internal/domain"
)

const defaultReprobeInterval = 30 * time.Second

// Tiered implements the two-tier cache strategy: the durable backend is
// authoritative while a reachability flag holds, and any durable error
// flips the per-call path to the in-process map with the same TTL
// semantics. The tiers are not reconciled: after a fallback period the
// durable backend may serve stale entries or misses, an accepted
// consistency relaxation.
type Tiered struct {
	durable domain.Cache
	local   *Memory

	mu        sync.Mutex
	reachable bool
	lastProbe time.Time
	reprobe   time.Duration
	now       func() time.Time
}

func NewTiered(durable domain.Cache, local *Memory) *Tiered {
	return NewTieredWithClock(durable, local, time.Now)
}

func NewTieredWithClock(durable domain.Cache, local *Memory, now func() time.Time) *Tiered {
	if local == nil {
		local = NewMemoryWithClock(now)
	}
	if now == nil {
		now = time.Now
	}
	return &Tiered{
		durable:   durable,
		local:     local,
		reachable: durable != nil,
		reprobe:   defaultReprobeInterval,
		now:       now,
	}
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if t.useDurable() {
		err := t.durable.Set(ctx, key, value, ttl)
		if err == nil {
			return nil
		}
		t.markUnreachable()
	}
	return t.local.Set(ctx, key, value, ttl)
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if t.useDurable() {
		value, ok, err := t.durable.Get(ctx, key)
		if err == nil {
			return value, ok, nil
		}
		t.markUnreachable()
	}
	return t.local.Get(ctx, key)
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	// Deletes always hit the local tier too, so a fallback period cannot
	// resurrect a deleted key from the in-process map.
	localErr := t.local.Delete(ctx, key)
	if t.useDurable() {
		if err := t.durable.Delete(ctx, key); err != nil {
			t.markUnreachable()
		} else {
			return nil
		}
	}
	return localErr
}

func (t *Tiered) Exists(ctx context.Context, key string) (bool, error) {
	if t.useDurable() {
		ok, err := t.durable.Exists(ctx, key)
		if err == nil {
			return ok, nil
		}
		t.markUnreachable()
	}
	return t.local.Exists(ctx, key)
}

// useDurable reports whether this call should try the durable tier,
// re-arming the flag once per reprobe interval after a failure.
func (t *Tiered) useDurable() bool {
	if t.durable == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reachable {
		return true
	}
	if t.now().Sub(t.lastProbe) >= t.reprobe {
		t.reachable = true
		return true
	}
	return false
}

func (t *Tiered) markUnreachable() {
	t.mu.Lock()
	t.reachable = false
	t.lastProbe = t.now()
	t.mu.Unlock()
}

var _ domain.Cache = (*Tiered)(nil)
