// Package fingerprint computes canonical content digests for raw bytes
// and structured field sets. Determinism is load-bearing: the digests are
// what lets a verifier recompute and compare hashes independently.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the digest width in bytes.
const Size = sha256.Size

// HashBytes fingerprints raw content.
func HashBytes(content []byte) []byte {
	sum := sha256.Sum256(content)
	return sum[:]
}

// HashStructured fingerprints a field set over its canonical JSON
// serialization, so the digest does not depend on key order or incidental
// number formatting.
func HashStructured(fields map[string]any) ([]byte, error) {
	canonical, err := CanonicalAny(fields)
	if err != nil {
		return nil, err
	}
	return HashBytes(canonical), nil
}

func Hex(digest []byte) string {
	return hex.EncodeToString(digest)
}

// ParseHex decodes a hex digest, enforcing the fixed width.
func ParseHex(s string) ([]byte, error) {
	digest, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(digest) != Size {
		return nil, ErrDigestSize
	}
	return digest, nil
}
