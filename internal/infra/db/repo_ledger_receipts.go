package db

import (
	"context"
	"errors"
	"time"

	"veridoc/internal/domain"

	"gorm.io/gorm"
)

type LedgerReceiptRepository struct {
	db *gorm.DB
}

func NewLedgerReceiptRepository(db *gorm.DB) *LedgerReceiptRepository {
	return &LedgerReceiptRepository{db: db}
}

func (r *LedgerReceiptRepository) Append(ctx context.Context, receipt domain.LedgerReceipt) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if receipt.Provider == "" {
		return errors.New("provider is required")
	}
	if receipt.PayloadHash == "" {
		return errors.New("payload hash is required")
	}
	if receipt.Status == "" {
		return errors.New("status is required")
	}
	createdAt := receipt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	model := LedgerReceiptModel{
		Provider:    receipt.Provider,
		PayloadHash: receipt.PayloadHash,
		Status:      receipt.Status,
		ErrorCode:   stringPtrIfNotEmpty(receipt.ErrorCode),
		TxRef:       stringPtrIfNotEmpty(receipt.TxRef),
		CreatedAt:   createdAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *LedgerReceiptRepository) ListByPayloadHash(ctx context.Context, payloadHash string) ([]domain.LedgerReceipt, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	if payloadHash == "" {
		return nil, errors.New("payload hash is required")
	}
	var models []LedgerReceiptModel
	if err := r.db.WithContext(ctx).
		Where("payload_hash = ?", payloadHash).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.LedgerReceipt, 0, len(models))
	for _, model := range models {
		out = append(out, domain.LedgerReceipt{
			Provider:    model.Provider,
			PayloadHash: model.PayloadHash,
			Status:      model.Status,
			ErrorCode:   stringValue(model.ErrorCode),
			TxRef:       stringValue(model.TxRef),
			CreatedAt:   model.CreatedAt,
		})
	}
	return out, nil
}

var _ domain.LedgerReceiptRepository = (*LedgerReceiptRepository)(nil)
