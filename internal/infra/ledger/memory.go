package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"veridoc/internal/domain"
)

// MemoryProvider is a process-local ledger used in development and
// tests. It keeps the contract honest: idempotent anchoring, revocation
// flags, and stable transaction references.
type MemoryProvider struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	seq     int64
	now     func() time.Time
}

type memoryEntry struct {
	txRef      string
	issuer     string
	anchoredAt time.Time
	revoked    bool
}

func NewMemoryProvider() *MemoryProvider {
	return NewMemoryProviderWithClock(time.Now)
}

func NewMemoryProviderWithClock(now func() time.Time) *MemoryProvider {
	if now == nil {
		now = time.Now
	}
	return &MemoryProvider{
		entries: make(map[string]*memoryEntry),
		now:     now,
	}
}

func (p *MemoryProvider) Name() string { return "memory" }

func (p *MemoryProvider) Anchor(ctx context.Context, hashHex string, meta domain.AnchorMetadata) (domain.AnchorResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnchorResult{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.entries[hashHex]; ok {
		return domain.AnchorResult{TxRef: entry.txRef, AlreadyAnchored: true}, nil
	}
	p.seq++
	entry := &memoryEntry{
		txRef:      txRef(hashHex, p.seq),
		issuer:     meta.Issuer,
		anchoredAt: p.now().UTC(),
	}
	p.entries[hashHex] = entry
	return domain.AnchorResult{TxRef: entry.txRef}, nil
}

func (p *MemoryProvider) Status(ctx context.Context, hashHex string) (domain.LedgerStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerStatus{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[hashHex]
	if !ok {
		return domain.LedgerStatus{}, nil
	}
	return domain.LedgerStatus{
		Anchored:   true,
		Revoked:    entry.revoked,
		AnchoredAt: entry.anchoredAt,
		Issuer:     entry.issuer,
	}, nil
}

func (p *MemoryProvider) Revoke(ctx context.Context, hashHex string) (domain.RevokeResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.RevokeResult{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[hashHex]
	if !ok {
		return domain.RevokeResult{}, domain.ErrNotFound
	}
	entry.revoked = true
	p.seq++
	return domain.RevokeResult{TxRef: txRef(hashHex, p.seq)}, nil
}

func txRef(hashHex string, seq int64) string {
	sum := sha256.Sum256([]byte(hashHex + "#" + strconv.FormatInt(seq, 10)))
	return "mem-" + hex.EncodeToString(sum[:8])
}

var _ Provider = (*MemoryProvider)(nil)
