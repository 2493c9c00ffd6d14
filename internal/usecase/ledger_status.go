package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"veridoc/internal/domain"
	"veridoc/internal/infra/fingerprint"
)

const (
	StatusSourceLedger = "ledger"
	StatusSourceLocal  = "local"
)

type LedgerStatusResult struct {
	Hash       string     `json:"hash"`
	State      string     `json:"state"`
	Source     string     `json:"source"`
	Issuer     string     `json:"issuer,omitempty"`
	AnchoredAt *time.Time `json:"anchored_at,omitempty"`
}

// LedgerStatusQuery reads a hash's ledger state, degrading to the local
// record when the ledger is unreachable. A degraded answer says so via
// Source; it never pretends to be the ledger's.
type LedgerStatusQuery struct {
	Ledger domain.LedgerService
	Store  domain.DocumentRepository
}

func (uc *LedgerStatusQuery) Execute(ctx context.Context, hashHex string) (*LedgerStatusResult, error) {
	digest, err := fingerprint.ParseHex(strings.ToLower(hashHex))
	if err != nil {
		return nil, fmt.Errorf("ledger status: %v: %w", err, domain.ErrInvalidDigest)
	}
	normalized := fingerprint.Hex(digest)

	if uc.Ledger != nil {
		status, err := uc.Ledger.Status(ctx, normalized)
		switch {
		case err == nil:
			return fromLedger(normalized, status), nil
		case errors.Is(err, domain.ErrLedgerUnavailable):
			// Fall through to the local record.
		default:
			return nil, err
		}
	}

	record, err := uc.Store.FindByContentHash(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("ledger status %s: %w", normalized, err)
	}
	state := domain.LedgerStateUnknown
	if record.Revoked {
		state = domain.LedgerStateRevoked
	}
	return &LedgerStatusResult{
		Hash:   normalized,
		State:  state,
		Source: StatusSourceLocal,
		Issuer: record.Issuer,
	}, nil
}

func fromLedger(hashHex string, status domain.LedgerStatus) *LedgerStatusResult {
	result := &LedgerStatusResult{
		Hash:   hashHex,
		Source: StatusSourceLedger,
		Issuer: status.Issuer,
	}
	switch {
	case status.Revoked:
		result.State = domain.LedgerStateRevoked
	case status.Anchored:
		result.State = domain.LedgerStateAnchored
	default:
		result.State = domain.LedgerStateUnanchored
	}
	if !status.AnchoredAt.IsZero() {
		at := status.AnchoredAt
		result.AnchoredAt = &at
	}
	return result
}
