package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

// flakyCache is a durable backend that can be switched into a failing
// state mid-test.
type flakyCache struct {
	inner   *Memory
	failing bool
	calls   int
}

var errBackend = errors.New("backend down")

func (f *flakyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.calls++
	if f.failing {
		return errBackend
	}
	return f.inner.Set(ctx, key, value, ttl)
}

func (f *flakyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.calls++
	if f.failing {
		return nil, false, errBackend
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyCache) Delete(ctx context.Context, key string) error {
	f.calls++
	if f.failing {
		return errBackend
	}
	return f.inner.Delete(ctx, key)
}

func (f *flakyCache) Exists(ctx context.Context, key string) (bool, error) {
	f.calls++
	if f.failing {
		return false, errBackend
	}
	return f.inner.Exists(ctx, key)
}

func TestTieredPrefersDurable(t *testing.T) {
	clock := &fakeClock{at: time.Unix(1000, 0)}
	durable := &flakyCache{inner: NewMemoryWithClock(clock.now)}
	tiered := NewTieredWithClock(durable, NewMemoryWithClock(clock.now), clock.now)
	ctx := context.Background()

	if err := tiered.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := tiered.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(value, []byte("v")) {
		t.Fatalf("Get: value=%q ok=%v err=%v", value, ok, err)
	}
	if got, _, _ := durable.inner.Get(ctx, "k"); !bytes.Equal(got, []byte("v")) {
		t.Fatalf("durable tier did not receive the write")
	}
}

func TestTieredFallsBackOnError(t *testing.T) {
	clock := &fakeClock{at: time.Unix(1000, 0)}
	durable := &flakyCache{inner: NewMemoryWithClock(clock.now), failing: true}
	tiered := NewTieredWithClock(durable, NewMemoryWithClock(clock.now), clock.now)
	ctx := context.Background()

	if err := tiered.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set must succeed via the local tier: %v", err)
	}
	value, ok, err := tiered.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(value, []byte("v")) {
		t.Fatalf("Get via local tier: value=%q ok=%v err=%v", value, ok, err)
	}
}

func TestTieredStopsProbingUntilInterval(t *testing.T) {
	clock := &fakeClock{at: time.Unix(1000, 0)}
	durable := &flakyCache{inner: NewMemoryWithClock(clock.now), failing: true}
	tiered := NewTieredWithClock(durable, NewMemoryWithClock(clock.now), clock.now)
	ctx := context.Background()

	_ = tiered.Set(ctx, "a", []byte("1"), 0)
	callsAfterFailure := durable.calls

	// Within the reprobe interval the durable tier is skipped entirely.
	_ = tiered.Set(ctx, "b", []byte("2"), 0)
	_, _, _ = tiered.Get(ctx, "a")
	if durable.calls != callsAfterFailure {
		t.Fatalf("durable tier probed during backoff: %d calls", durable.calls-callsAfterFailure)
	}

	// After the interval the durable tier is retried.
	durable.failing = false
	clock.advance(defaultReprobeInterval + time.Second)
	_ = tiered.Set(ctx, "c", []byte("3"), 0)
	if durable.calls != callsAfterFailure+1 {
		t.Fatalf("durable tier not reprobed after interval")
	}
	if got, _, _ := durable.inner.Get(ctx, "c"); !bytes.Equal(got, []byte("3")) {
		t.Fatalf("write after recovery missed the durable tier")
	}
}

func TestTieredDeleteClearsLocal(t *testing.T) {
	clock := &fakeClock{at: time.Unix(1000, 0)}
	durable := &flakyCache{inner: NewMemoryWithClock(clock.now)}
	local := NewMemoryWithClock(clock.now)
	tiered := NewTieredWithClock(durable, local, clock.now)
	ctx := context.Background()

	// Write lands locally while the durable tier is down.
	durable.failing = true
	_ = tiered.Set(ctx, "k", []byte("v"), 0)

	durable.failing = false
	clock.advance(defaultReprobeInterval + time.Second)
	if err := tiered.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := local.Get(ctx, "k"); ok {
		t.Fatalf("delete left the key in the local tier")
	}
	if _, ok, _ := tiered.Get(ctx, "k"); ok {
		t.Fatalf("deleted key still visible")
	}
}

func TestTieredNilDurable(t *testing.T) {
	tiered := NewTiered(nil, NewMemory())
	ctx := context.Background()

	if err := tiered.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := tiered.Get(ctx, "k"); !ok {
		t.Fatalf("Get missed with local-only configuration")
	}
}
