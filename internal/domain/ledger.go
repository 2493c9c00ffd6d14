package domain

import (
	"context"
	"time"
)

// LedgerService is the external immutable ledger the core anchors into.
// Anchoring is idempotent: re-anchoring an existing hash reports
// AlreadyAnchored instead of erroring or double-writing. Any call may
// fail with ErrLedgerUnavailable; read paths must recover locally.
type LedgerService interface {
	Anchor(ctx context.Context, hashHex string, meta AnchorMetadata) (AnchorResult, error)
	Status(ctx context.Context, hashHex string) (LedgerStatus, error)
	Revoke(ctx context.Context, hashHex string) (RevokeResult, error)
}

type AnchorMetadata struct {
	Issuer    string
	BatchID   string
	LeafCount int
}

type AnchorResult struct {
	TxRef           string
	AlreadyAnchored bool
}

type LedgerStatus struct {
	Anchored   bool
	Revoked    bool
	AnchoredAt time.Time
	Issuer     string
}

type RevokeResult struct {
	TxRef string
}

const (
	LedgerReceiptAnchored = "anchored"
	LedgerReceiptRevoked  = "revoked"
	LedgerReceiptFailed   = "failed"
	LedgerReceiptSkipped  = "skipped"
)

const (
	LedgerErrorNetwork     = "NETWORK"
	LedgerErrorTimeout     = "TIMEOUT"
	LedgerErrorBadConfig   = "BAD_CONFIG"
	LedgerErrorProvider    = "PROVIDER_ERROR"
	LedgerErrorPersistence = "PERSISTENCE"
)

// LedgerReceipt is an append-only audit trail of every anchor attempt,
// successful or not.
type LedgerReceipt struct {
	Provider    string
	PayloadHash string
	Status      string
	ErrorCode   string
	TxRef       string
	CreatedAt   time.Time
}

type LedgerReceiptRepository interface {
	Append(ctx context.Context, receipt LedgerReceipt) error
	ListByPayloadHash(ctx context.Context, payloadHash string) ([]LedgerReceipt, error)
}
