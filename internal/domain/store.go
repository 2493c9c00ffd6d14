package domain

import (
	"context"
	"time"
)

// DocumentRepository is the persistent record store. Counter updates are
// single-statement atomic operations in the store, never read-modify-write
// in the engine, so concurrent verifications of one document are
// linearizable per record.
type DocumentRepository interface {
	Create(ctx context.Context, record DocumentRecord) error
	FindByID(ctx context.Context, id string) (*DocumentRecord, error)
	FindByContentHash(ctx context.Context, hashHex string) (*DocumentRecord, error)

	// AtomicIncrement bumps one counter column and returns the new value.
	AtomicIncrement(ctx context.Context, id, counter string, amount int64) (int64, error)
	UpdateTimestamp(ctx context.Context, id, field string, at time.Time) error

	// RecordAccess increments one counter and stamps one timestamp in a
	// single statement, returning the new counter value.
	RecordAccess(ctx context.Context, id, counter, tsField string, at time.Time) (int64, error)
	// RecordQuickAccess is the dedicated quick-path update: verification
	// counter plus last-verified timestamp in one statement.
	RecordQuickAccess(ctx context.Context, id string, at time.Time) (int64, error)

	// UpdateContent re-hashes an explicit content update; the only way a
	// content hash ever changes.
	UpdateContent(ctx context.Context, id, contentHash, hashMode string) error
	MarkRevoked(ctx context.Context, id string, at time.Time) error
}

// BatchRepository persists anchored batches with their leaves. Create is
// create-once: a second create for the same batch id fails with
// ErrBatchExists.
type BatchRepository interface {
	Create(ctx context.Context, batch BatchAnchor, leafHashes []string) error
	FindByID(ctx context.Context, batchID string) (*BatchAnchor, []string, error)
}
