package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"veridoc/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, record domain.DocumentRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if record.ID == "" {
		return errors.New("document id is required")
	}
	if record.ContentHash == "" {
		return errors.New("content hash is required")
	}

	summaryJSON, err := json.Marshal(record.Summary)
	if err != nil {
		return err
	}
	detailJSON, err := json.Marshal(record.Detail)
	if err != nil {
		return err
	}

	model := DocumentModel{
		ID:                record.ID,
		ContentHash:       record.ContentHash,
		HashMode:          record.HashMode,
		AccessSecret:      record.AccessSecret,
		Issuer:            record.Issuer,
		SummaryJSON:       summaryJSON,
		DetailJSON:        detailJSON,
		VerificationCount: record.VerificationCount,
		FullAccessCount:   record.FullAccessCount,
		DownloadCount:     record.DownloadCount,
		LastVerifiedAt:    record.LastVerifiedAt,
		LastFullAccessAt:  record.LastFullAccessAt,
		Revoked:           record.Revoked,
		RevokedAt:         record.RevokedAt,
		CreatedAt:         record.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model DocumentModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return recordFromModel(model)
}

func (r *DocumentRepository) FindByContentHash(ctx context.Context, hashHex string) (*domain.DocumentRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model DocumentModel
	err := r.db.WithContext(ctx).
		Where("content_hash = ?", hashHex).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return recordFromModel(model)
}

// AtomicIncrement is a single UPDATE ... RETURNING, so concurrent
// verifications of one document are linearizable per record.
func (r *DocumentRepository) AtomicIncrement(ctx context.Context, id, counter string, amount int64) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	if !validCounter(counter) {
		return 0, fmt.Errorf("unknown counter %q", counter)
	}
	var updated DocumentModel
	tx := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		UpdateColumn(counter, gorm.Expr(counter+" + ?", amount))
	if tx.Error != nil {
		return 0, tx.Error
	}
	if tx.RowsAffected == 0 {
		return 0, domain.ErrNotFound
	}
	return counterValue(updated, counter), nil
}

func (r *DocumentRepository) UpdateTimestamp(ctx context.Context, id, field string, at time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if !validTimestamp(field) {
		return fmt.Errorf("unknown timestamp field %q", field)
	}
	tx := r.db.WithContext(ctx).Model(&DocumentModel{}).
		Where("id = ?", id).
		UpdateColumn(field, at)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) RecordAccess(ctx context.Context, id, counter, tsField string, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	if !validCounter(counter) {
		return 0, fmt.Errorf("unknown counter %q", counter)
	}
	if !validTimestamp(tsField) {
		return 0, fmt.Errorf("unknown timestamp field %q", tsField)
	}
	var updated DocumentModel
	tx := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			counter: gorm.Expr(counter+" + ?", 1),
			tsField: at,
		})
	if tx.Error != nil {
		return 0, tx.Error
	}
	if tx.RowsAffected == 0 {
		return 0, domain.ErrNotFound
	}
	return counterValue(updated, counter), nil
}

func (r *DocumentRepository) RecordQuickAccess(ctx context.Context, id string, at time.Time) (int64, error) {
	return r.RecordAccess(ctx, id, domain.CounterVerification, domain.TimestampLastVerified, at)
}

func (r *DocumentRepository) UpdateContent(ctx context.Context, id, contentHash, hashMode string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if contentHash == "" {
		return errors.New("content hash is required")
	}
	tx := r.db.WithContext(ctx).Model(&DocumentModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"content_hash": contentHash,
			"hash_mode":    hashMode,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) MarkRevoked(ctx context.Context, id string, at time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	tx := r.db.WithContext(ctx).Model(&DocumentModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"revoked":    true,
			"revoked_at": at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func recordFromModel(model DocumentModel) (*domain.DocumentRecord, error) {
	var summary domain.PrimarySummary
	if err := json.Unmarshal(model.SummaryJSON, &summary); err != nil {
		return nil, err
	}
	var detail domain.FullDetail
	if err := json.Unmarshal(model.DetailJSON, &detail); err != nil {
		return nil, err
	}
	return &domain.DocumentRecord{
		ID:                model.ID,
		ContentHash:       model.ContentHash,
		HashMode:          model.HashMode,
		AccessSecret:      model.AccessSecret,
		Issuer:            model.Issuer,
		Summary:           summary,
		Detail:            detail,
		VerificationCount: model.VerificationCount,
		FullAccessCount:   model.FullAccessCount,
		DownloadCount:     model.DownloadCount,
		LastVerifiedAt:    model.LastVerifiedAt,
		LastFullAccessAt:  model.LastFullAccessAt,
		Revoked:           model.Revoked,
		RevokedAt:         model.RevokedAt,
		CreatedAt:         model.CreatedAt,
	}, nil
}

func validCounter(counter string) bool {
	switch counter {
	case domain.CounterVerification, domain.CounterFullAccess, domain.CounterDownload:
		return true
	}
	return false
}

func validTimestamp(field string) bool {
	switch field {
	case domain.TimestampLastVerified, domain.TimestampLastFullAccess:
		return true
	}
	return false
}

func counterValue(model DocumentModel, counter string) int64 {
	switch counter {
	case domain.CounterVerification:
		return model.VerificationCount
	case domain.CounterFullAccess:
		return model.FullAccessCount
	case domain.CounterDownload:
		return model.DownloadCount
	}
	return 0
}

var _ domain.DocumentRepository = (*DocumentRepository)(nil)
