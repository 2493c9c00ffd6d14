package cache

import (
	"context"
	"sync"
	"time"

	"veridoc/internal/domain"
)

// sweepEvery bounds how much garbage accumulates between accesses.
const sweepEvery = 256

// Memory is the in-process fallback cache. Expired entries are purged
// lazily on access, with a full sweep every sweepEvery writes.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	writes  int
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	hasExpiry bool
}

func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

func NewMemoryWithClock(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{value: cloneValue(value)}
	if ttl > 0 {
		entry.hasExpiry = true
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	m.writes++
	if m.writes%sweepEvery == 0 {
		m.sweep()
	}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.live(key)
	if !ok {
		return nil, false, nil
	}
	return cloneValue(entry.value), true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(key)
	return ok, nil
}

// live returns the entry for key, deleting it first if it has expired.
// Callers hold the mutex.
func (m *Memory) live(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if entry.hasExpiry && m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *Memory) sweep() {
	now := m.now()
	for key, entry := range m.entries {
		if entry.hasExpiry && now.After(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}

func cloneValue(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

var _ domain.Cache = (*Memory)(nil)
