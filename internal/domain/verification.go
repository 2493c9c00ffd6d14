package domain

import "time"

type DisclosureLevel string

const (
	LevelInvalid DisclosureLevel = "invalid"
	LevelQuick   DisclosureLevel = "quick"
	LevelPartial DisclosureLevel = "partial"
	LevelFull    DisclosureLevel = "full"
)

// Ledger status values surfaced on verification results. Unknown means
// the ledger could not be reached in time; verification proceeded on
// local record state.
const (
	LedgerStateAnchored   = "anchored"
	LedgerStateUnanchored = "unanchored"
	LedgerStateRevoked    = "revoked"
	LedgerStateUnknown    = "unknown"
)

type AccessCounters struct {
	Verifications int64 `json:"verifications"`
	FullAccesses  int64 `json:"full_accesses"`
	Downloads     int64 `json:"downloads"`
}

// VerificationResult is what a verify call discloses. Secret-gated fields
// are omitted, not nulled, below full level, so partial results are safe
// to cache and log. The access secret never appears at any level.
type VerificationResult struct {
	Level       DisclosureLevel `json:"level"`
	DocumentID  string          `json:"document_id,omitempty"`
	ContentHash string          `json:"content_hash,omitempty"`

	Summary *PrimarySummary `json:"summary,omitempty"`
	// Fields is the limited subset disclosed at partial level.
	Fields map[string]any `json:"fields,omitempty"`
	Detail *FullDetail    `json:"detail,omitempty"`

	DownloadEligible bool            `json:"download_eligible,omitempty"`
	Counters         *AccessCounters `json:"counters,omitempty"`

	LedgerStatus string     `json:"ledger_status,omitempty"`
	Revoked      bool       `json:"revoked,omitempty"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}
