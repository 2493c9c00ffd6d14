// Package merkle folds ordered digest lists into batch roots and builds
// inclusion proofs against them. Siblings are combined as
// H(min(a,b) || max(a,b)), so proof verification does not depend on which
// side a sibling sat on; an odd node at any level is promoted unchanged
// to the next level, never duplicated. Roots are therefore invariant to
// subtree construction order but not to leaf order.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
)

const HashSize = sha256.Size

var (
	ErrInvalidHashLen = errors.New("leaf hash must be 32 bytes")
	ErrIndexRange     = errors.New("leaf index out of range")
	ErrLeafNotFound   = errors.New("leaf not present in batch")
)

// zeroRoot is the defined root of an empty batch.
var zeroRoot = make([]byte, HashSize)

// Root folds leaves into a single digest. Empty input yields the zero
// root; a single leaf is its own root.
func Root(leaves [][]byte) ([]byte, error) {
	if err := checkLeaves(leaves); err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return clone(zeroRoot), nil
	}
	level := cloneAll(leaves)
	for len(level) > 1 {
		level = fold(level)
	}
	return level[0], nil
}

// Prove records, per level, the sibling digest needed to refold
// leaves[index] up to the root.
func Prove(leaves [][]byte, index int) ([][]byte, error) {
	if err := checkLeaves(leaves); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(leaves) {
		return nil, ErrIndexRange
	}
	var path [][]byte
	level := cloneAll(leaves)
	for len(level) > 1 {
		sibling := index ^ 1
		if sibling < len(level) {
			path = append(path, clone(level[sibling]))
		}
		// An unpaired last node has no sibling this level; it is promoted
		// and the index still halves.
		level = fold(level)
		index /= 2
	}
	return path, nil
}

// ProveLeaf locates leaf in leaves and proves it. Absent leaves report
// ErrLeafNotFound rather than a fabricated proof; duplicate leaves prove
// their first position.
func ProveLeaf(leaves [][]byte, leaf []byte) (int, [][]byte, error) {
	if err := checkLeaves(leaves); err != nil {
		return 0, nil, err
	}
	for i, candidate := range leaves {
		if bytes.Equal(candidate, leaf) {
			path, err := Prove(leaves, i)
			return i, path, err
		}
	}
	return 0, nil, ErrLeafNotFound
}

// Verify refolds leaf through path and compares against root. The
// combination rule matches Root exactly; nothing else would.
func Verify(leaf []byte, path [][]byte, root []byte) bool {
	if len(leaf) != HashSize || len(root) != HashSize {
		return false
	}
	current := clone(leaf)
	for _, sibling := range path {
		if len(sibling) != HashSize {
			return false
		}
		current = combine(current, sibling)
	}
	return bytes.Equal(current, root)
}

func fold(level [][]byte) [][]byte {
	next := make([][]byte, 0, (len(level)+1)/2)
	for i := 0; i+1 < len(level); i += 2 {
		next = append(next, combine(level[i], level[i+1]))
	}
	if len(level)%2 == 1 {
		next = append(next, level[len(level)-1])
	}
	return next
}

func combine(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	h := sha256.New()
	h.Write(a)
	h.Write(b)
	return h.Sum(nil)
}

func checkLeaves(leaves [][]byte) error {
	for _, leaf := range leaves {
		if len(leaf) != HashSize {
			return ErrInvalidHashLen
		}
	}
	return nil
}

func clone(hash []byte) []byte {
	out := make([]byte, len(hash))
	copy(out, hash)
	return out
}

func cloneAll(hashes [][]byte) [][]byte {
	out := make([][]byte, len(hashes))
	for i, h := range hashes {
		out[i] = clone(h)
	}
	return out
}
