package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"veridoc/internal/domain"
	"veridoc/internal/infra/fingerprint"
	"veridoc/internal/infra/merkle"
)

type AnchorBatchRequest struct {
	BatchID string
	// Leaves are hex content hashes. Order decides how leaves pair up,
	// so the same hashes in a different order anchor a different root.
	Leaves []string
	Issuer string
}

// AnchorBatch folds a batch of content hashes into one Merkle root and
// anchors that root. Concurrent requests for the same batch id collapse
// into one ledger write; replays after completion hit the store's
// conflict guard and come back as ErrBatchExists.
type AnchorBatch struct {
	Batches domain.BatchRepository
	Ledger  domain.LedgerService
	Clock   func() time.Time

	group singleflight.Group
}

func (uc *AnchorBatch) Execute(ctx context.Context, req AnchorBatchRequest) (*domain.BatchAnchor, error) {
	if req.BatchID == "" {
		return nil, fmt.Errorf("anchor batch: missing batch id: %w", domain.ErrInvalidDocument)
	}
	if len(req.Leaves) == 0 {
		return nil, fmt.Errorf("anchor batch %s: no leaves: %w", req.BatchID, domain.ErrInvalidDocument)
	}
	leaves := make([][]byte, len(req.Leaves))
	normalized := make([]string, len(req.Leaves))
	for i, leafHex := range req.Leaves {
		leaf, err := fingerprint.ParseHex(strings.ToLower(leafHex))
		if err != nil {
			return nil, fmt.Errorf("anchor batch %s: leaf %d: %v: %w", req.BatchID, i, err, domain.ErrInvalidDigest)
		}
		leaves[i] = leaf
		normalized[i] = fingerprint.Hex(leaf)
	}

	v, err, _ := uc.group.Do(req.BatchID, func() (any, error) {
		root, err := merkle.Root(leaves)
		if err != nil {
			return nil, fmt.Errorf("anchor batch %s: %w", req.BatchID, err)
		}
		rootHex := fingerprint.Hex(root)

		batch := domain.BatchAnchor{
			BatchID:    req.BatchID,
			MerkleRoot: rootHex,
			LeafCount:  len(leaves),
			Issuer:     req.Issuer,
			AnchoredAt: uc.now(),
		}

		// Anchor-then-persist: an unanchored local batch record would
		// claim a durability the ledger never saw. Anchoring failures
		// are loud on this path.
		if uc.Ledger != nil {
			result, err := uc.Ledger.Anchor(ctx, rootHex, domain.AnchorMetadata{
				Issuer:    req.Issuer,
				BatchID:   req.BatchID,
				LeafCount: len(leaves),
			})
			if err != nil {
				return nil, err
			}
			batch.LedgerRef = result.TxRef
		}

		if err := uc.Batches.Create(ctx, batch, normalized); err != nil {
			return nil, fmt.Errorf("anchor batch %s: %w", req.BatchID, err)
		}
		return &batch, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.BatchAnchor), nil
}

func (uc *AnchorBatch) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock().UTC()
	}
	return time.Now().UTC()
}
