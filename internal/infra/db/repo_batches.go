package db

import (
	"context"
	"errors"

	"veridoc/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create writes the batch and its leaves in one transaction. Batches are
// immutable: an existing batch id fails with ErrBatchExists, it is never
// updated.
func (r *BatchRepository) Create(ctx context.Context, batch domain.BatchAnchor, leafHashes []string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if batch.BatchID == "" {
		return errors.New("batch id is required")
	}
	if len(leafHashes) != batch.LeafCount {
		return errors.New("leaf count mismatch")
	}

	model := BatchModel{
		BatchID:    batch.BatchID,
		MerkleRoot: batch.MerkleRoot,
		LeafCount:  batch.LeafCount,
		Issuer:     batch.Issuer,
		LedgerRef:  batch.LedgerRef,
		AnchoredAt: batch.AnchoredAt,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrBatchExists
		}
		leaves := make([]BatchLeafModel, 0, len(leafHashes))
		for i, hash := range leafHashes {
			leaves = append(leaves, BatchLeafModel{
				BatchID:   batch.BatchID,
				LeafIndex: i,
				LeafHash:  hash,
			})
		}
		return tx.Create(&leaves).Error
	})
}

func (r *BatchRepository) FindByID(ctx context.Context, batchID string) (*domain.BatchAnchor, []string, error) {
	if r.db == nil {
		return nil, nil, errDBUnavailable
	}
	var model BatchModel
	err := r.db.WithContext(ctx).First(&model, "batch_id = ?", batchID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}

	var leafModels []BatchLeafModel
	err = r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("leaf_index ASC").
		Find(&leafModels).Error
	if err != nil {
		return nil, nil, err
	}

	leaves := make([]string, 0, len(leafModels))
	for _, leaf := range leafModels {
		leaves = append(leaves, leaf.LeafHash)
	}
	batch := domain.BatchAnchor{
		BatchID:    model.BatchID,
		MerkleRoot: model.MerkleRoot,
		LeafCount:  model.LeafCount,
		Issuer:     model.Issuer,
		LedgerRef:  model.LedgerRef,
		AnchoredAt: model.AnchoredAt,
	}
	return &batch, leaves, nil
}

var _ domain.BatchRepository = (*BatchRepository)(nil)
