package domain

import "time"

const (
	HashModeRaw        = "raw"
	HashModeStructured = "structured"
)

// Counter and timestamp column names accepted by the document store's
// atomic update primitives.
const (
	CounterVerification = "verification_count"
	CounterFullAccess   = "full_access_count"
	CounterDownload     = "download_count"
)

const (
	TimestampLastVerified   = "last_verified_at"
	TimestampLastFullAccess = "last_full_access_at"
)

// PrimarySummary is the disclosure-safe slice of a document: it may appear
// in any response regardless of access level.
type PrimarySummary struct {
	Holder           string  `json:"holder"`
	DocumentType     string  `json:"document_type"`
	IssuingAuthority string  `json:"issuing_authority"`
	Confidence       float64 `json:"confidence"`
	IntegrityHash    string  `json:"integrity_hash"`
}

// FullDetail is gated behind the access secret. Fields is an opaque
// extraction payload: the core hashes, stores, and gates it, never
// interprets it.
type FullDetail struct {
	RawText    string         `json:"raw_text,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	IssuedAt   *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	Signatures []string       `json:"signatures,omitempty"`
}

type DocumentRecord struct {
	ID           string
	ContentHash  string // hex, immutable once set
	HashMode     string
	AccessSecret string // bearer token, byte-for-byte comparison
	Issuer       string

	Summary PrimarySummary
	Detail  FullDetail

	VerificationCount int64
	FullAccessCount   int64
	DownloadCount     int64

	LastVerifiedAt   *time.Time
	LastFullAccessAt *time.Time

	// Revocation is a tombstone, never physical deletion, so proofs over
	// anchored batches stay meaningful.
	Revoked   bool
	RevokedAt *time.Time

	CreatedAt time.Time
}
