package domain

import "time"

// BatchAnchor is immutable once written: LeafCount always equals the
// number of leaves folded into MerkleRoot and no leaf is ever added or
// removed afterwards.
type BatchAnchor struct {
	BatchID    string
	MerkleRoot string // hex
	LeafCount  int
	Issuer     string
	LedgerRef  string
	AnchoredAt time.Time
}

// MerkleProof is derived, never persisted: the ordered sibling hashes
// needed to refold a leaf up to the batch root.
type MerkleProof struct {
	LeafIndex int
	Path      [][]byte
}
