// Package ledger adapts an external immutable ledger for anchoring
// document and batch hashes. Every attempt, successful or not, is
// persisted as an append-only receipt.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veridoc/internal/domain"
)

const defaultCallTimeout = 5 * time.Second

// Provider is one concrete ledger backend. Providers return raw errors;
// the Service classifies them and owns receipts and timeouts.
type Provider interface {
	Name() string
	Anchor(ctx context.Context, hashHex string, meta domain.AnchorMetadata) (domain.AnchorResult, error)
	Status(ctx context.Context, hashHex string) (domain.LedgerStatus, error)
	Revoke(ctx context.Context, hashHex string) (domain.RevokeResult, error)
}

type Service struct {
	provider Provider
	receipts domain.LedgerReceiptRepository
	timeout  time.Duration
	now      func() time.Time
}

func NewService(provider Provider, receipts domain.LedgerReceiptRepository, timeout time.Duration) (*Service, error) {
	if provider == nil {
		return nil, errors.New("ledger provider is required")
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Service{
		provider: provider,
		receipts: receipts,
		timeout:  timeout,
		now:      time.Now,
	}, nil
}

func (s *Service) Anchor(ctx context.Context, hashHex string, meta domain.AnchorMetadata) (domain.AnchorResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.provider.Anchor(callCtx, hashHex, meta)
	if err != nil {
		s.appendReceipt(ctx, hashHex, domain.LedgerReceiptFailed, classify(callCtx, err), "")
		return domain.AnchorResult{}, fmt.Errorf("anchor %s: %w", hashHex, domain.ErrLedgerUnavailable)
	}
	s.appendReceipt(ctx, hashHex, domain.LedgerReceiptAnchored, "", result.TxRef)
	return result, nil
}

func (s *Service) Status(ctx context.Context, hashHex string) (domain.LedgerStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status, err := s.provider.Status(callCtx, hashHex)
	if err != nil {
		return domain.LedgerStatus{}, fmt.Errorf("status %s: %w", hashHex, domain.ErrLedgerUnavailable)
	}
	return status, nil
}

func (s *Service) Revoke(ctx context.Context, hashHex string) (domain.RevokeResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.provider.Revoke(callCtx, hashHex)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.RevokeResult{}, err
	}
	if err != nil {
		s.appendReceipt(ctx, hashHex, domain.LedgerReceiptFailed, classify(callCtx, err), "")
		return domain.RevokeResult{}, fmt.Errorf("revoke %s: %w", hashHex, domain.ErrLedgerUnavailable)
	}
	s.appendReceipt(ctx, hashHex, domain.LedgerReceiptRevoked, "", result.TxRef)
	return result, nil
}

func (s *Service) appendReceipt(ctx context.Context, hashHex, status, errorCode, txRef string) {
	if s.receipts == nil {
		return
	}
	receipt := domain.LedgerReceipt{
		Provider:    s.provider.Name(),
		PayloadHash: hashHex,
		Status:      status,
		ErrorCode:   errorCode,
		TxRef:       txRef,
		CreatedAt:   s.now().UTC(),
	}
	// Receipts are an audit trail; a persistence failure must not mask
	// the provider outcome.
	_ = s.receipts.Append(ctx, receipt)
}

func classify(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return domain.LedgerErrorTimeout
	}
	if errors.Is(err, context.Canceled) {
		return domain.LedgerErrorTimeout
	}
	return domain.LedgerErrorProvider
}

var _ domain.LedgerService = (*Service)(nil)
