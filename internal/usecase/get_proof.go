package usecase

import (
	"context"
	"fmt"
	"strings"

	"veridoc/internal/domain"
	"veridoc/internal/infra/fingerprint"
	"veridoc/internal/infra/merkle"
)

type ProofResult struct {
	BatchID    string   `json:"batch_id"`
	MerkleRoot string   `json:"merkle_root"`
	LeafHash   string   `json:"leaf_hash"`
	LeafIndex  int      `json:"leaf_index"`
	Path       []string `json:"path"`
}

// GetProof rebuilds an inclusion proof from a batch's stored leaves.
// Proofs are derived on demand, never persisted.
type GetProof struct {
	Batches domain.BatchRepository
}

func (uc *GetProof) Execute(ctx context.Context, batchID, leafHex string) (*ProofResult, error) {
	leaf, err := fingerprint.ParseHex(strings.ToLower(leafHex))
	if err != nil {
		return nil, fmt.Errorf("proof %s: %v: %w", batchID, err, domain.ErrInvalidDigest)
	}

	batch, leafHexes, err := uc.Batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("proof %s: %w", batchID, err)
	}

	leaves := make([][]byte, len(leafHexes))
	for i, h := range leafHexes {
		decoded, err := fingerprint.ParseHex(h)
		if err != nil {
			return nil, fmt.Errorf("proof %s: stored leaf %d: %w", batchID, i, err)
		}
		leaves[i] = decoded
	}

	index, path, err := merkle.ProveLeaf(leaves, leaf)
	if err != nil {
		if err == merkle.ErrLeafNotFound {
			return nil, fmt.Errorf("proof %s: leaf not in batch: %w", batchID, domain.ErrProofNotFound)
		}
		return nil, fmt.Errorf("proof %s: %w", batchID, err)
	}

	pathHex := make([]string, len(path))
	for i, sibling := range path {
		pathHex[i] = fingerprint.Hex(sibling)
	}
	return &ProofResult{
		BatchID:    batch.BatchID,
		MerkleRoot: batch.MerkleRoot,
		LeafHash:   fingerprint.Hex(leaf),
		LeafIndex:  index,
		Path:       pathHex,
	}, nil
}

// VerifyProof refolds a leaf through a sibling path and compares against
// an expected root, all inputs hex. It needs no stored state.
func VerifyProof(leafHex string, pathHex []string, rootHex string) (bool, error) {
	leaf, err := fingerprint.ParseHex(strings.ToLower(leafHex))
	if err != nil {
		return false, fmt.Errorf("verify proof: leaf: %v: %w", err, domain.ErrInvalidDigest)
	}
	root, err := fingerprint.ParseHex(strings.ToLower(rootHex))
	if err != nil {
		return false, fmt.Errorf("verify proof: root: %v: %w", err, domain.ErrInvalidDigest)
	}
	path := make([][]byte, len(pathHex))
	for i, h := range pathHex {
		sibling, err := fingerprint.ParseHex(strings.ToLower(h))
		if err != nil {
			return false, fmt.Errorf("verify proof: path %d: %v: %w", i, err, domain.ErrInvalidDigest)
		}
		path[i] = sibling
	}
	return merkle.Verify(leaf, path, root), nil
}
