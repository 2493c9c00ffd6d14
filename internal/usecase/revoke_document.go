package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veridoc/internal/domain"
)

type RevokeOutcome struct {
	DocumentID string `json:"document_id"`
	LedgerTx   string `json:"ledger_tx,omitempty"`
	// AlreadyRevoked marks an idempotent replay; nothing was written.
	AlreadyRevoked bool `json:"already_revoked,omitempty"`
}

// RevokeDocument tombstones a record and marks its hash revoked on the
// ledger. The ledger write happens first: a locally revoked document
// whose ledger entry still reads anchored would be the one inconsistency
// verifiers cannot detect.
type RevokeDocument struct {
	Store  domain.DocumentRepository
	Ledger domain.LedgerService
	Clock  func() time.Time
}

func (uc *RevokeDocument) Execute(ctx context.Context, documentID string) (*RevokeOutcome, error) {
	record, err := uc.Store.FindByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("revoke %s: %w", documentID, err)
	}
	if record.Revoked {
		return &RevokeOutcome{DocumentID: documentID, AlreadyRevoked: true}, nil
	}

	outcome := &RevokeOutcome{DocumentID: documentID}
	if uc.Ledger != nil {
		result, err := uc.Ledger.Revoke(ctx, record.ContentHash)
		switch {
		case err == nil:
			outcome.LedgerTx = result.TxRef
		case errors.Is(err, domain.ErrNotFound):
			// Hash was never anchored individually; the tombstone alone
			// is authoritative.
		default:
			return nil, err
		}
	}

	if err := uc.Store.MarkRevoked(ctx, documentID, uc.now()); err != nil {
		return nil, fmt.Errorf("revoke %s: %w", documentID, err)
	}
	return outcome, nil
}

func (uc *RevokeDocument) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock().UTC()
	}
	return time.Now().UTC()
}
