package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"veridoc/internal/domain"
	"veridoc/internal/infra/fingerprint"
)

type IssueRequest struct {
	// Content and Fields are mutually exclusive fingerprint sources:
	// Content hashes raw bytes, Fields hashes the canonical structured
	// form. When both are present Content wins.
	Content []byte
	Fields  map[string]any

	Issuer  string
	Summary domain.PrimarySummary
	Detail  domain.FullDetail

	// AnchorNow anchors the document's own hash immediately instead of
	// waiting for a batch. When anchoring fails the document is already
	// persisted, so the result is returned alongside the error.
	AnchorNow bool
}

type IssueResult struct {
	// Record carries the access secret. Issuance is the only response
	// that ever does.
	Record    domain.DocumentRecord
	LedgerRef string
}

type IssueDocument struct {
	Store  domain.DocumentRepository
	Ledger domain.LedgerService

	Clock     func() time.Time
	NewID     func() string
	NewSecret func() (string, error)
}

func (uc *IssueDocument) Execute(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if len(req.Content) == 0 && len(req.Fields) == 0 {
		return nil, fmt.Errorf("issue: no content or fields: %w", domain.ErrInvalidDocument)
	}
	if req.Issuer == "" {
		return nil, fmt.Errorf("issue: missing issuer: %w", domain.ErrInvalidDocument)
	}

	hashHex, hashMode, err := fingerprintRequest(req)
	if err != nil {
		return nil, err
	}

	secret, err := uc.newSecret()
	if err != nil {
		return nil, fmt.Errorf("issue: generate secret: %w", err)
	}

	record := domain.DocumentRecord{
		ID:           uc.newID(),
		ContentHash:  hashHex,
		HashMode:     hashMode,
		AccessSecret: secret,
		Issuer:       req.Issuer,
		Summary:      req.Summary,
		Detail:       req.Detail,
		CreatedAt:    uc.now(),
	}
	if record.Summary.IntegrityHash == "" {
		record.Summary.IntegrityHash = hashHex
	}

	if err := uc.Store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("issue: persist document: %w", err)
	}

	result := &IssueResult{Record: record}
	if req.AnchorNow && uc.Ledger != nil {
		anchored, err := uc.Ledger.Anchor(ctx, hashHex, domain.AnchorMetadata{
			Issuer:    req.Issuer,
			LeafCount: 1,
		})
		if err != nil {
			// The record is already stored; dropping it here would strand
			// the id and access secret. Anchoring can be retried in a batch.
			return result, err
		}
		result.LedgerRef = anchored.TxRef
	}
	return result, nil
}

// UpdateContent re-fingerprints a document after its content changed.
// The stored hash is replaced, not appended; history lives in the ledger.
func (uc *IssueDocument) UpdateContent(ctx context.Context, documentID string, content []byte, fields map[string]any) (string, error) {
	if len(content) == 0 && len(fields) == 0 {
		return "", fmt.Errorf("update content: no content or fields: %w", domain.ErrInvalidDocument)
	}
	hashHex, hashMode, err := fingerprintRequest(IssueRequest{Content: content, Fields: fields})
	if err != nil {
		return "", err
	}
	if err := uc.Store.UpdateContent(ctx, documentID, hashHex, hashMode); err != nil {
		return "", fmt.Errorf("update content: %w", err)
	}
	return hashHex, nil
}

func fingerprintRequest(req IssueRequest) (string, string, error) {
	if len(req.Content) > 0 {
		return fingerprint.Hex(fingerprint.HashBytes(req.Content)), domain.HashModeRaw, nil
	}
	digest, err := fingerprint.HashStructured(req.Fields)
	if err != nil {
		return "", "", fmt.Errorf("issue: canonicalize fields: %w", err)
	}
	return fingerprint.Hex(digest), domain.HashModeStructured, nil
}

func (uc *IssueDocument) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock().UTC()
	}
	return time.Now().UTC()
}

func (uc *IssueDocument) newID() string {
	if uc.NewID != nil {
		return uc.NewID()
	}
	return uuid.NewString()
}

func (uc *IssueDocument) newSecret() (string, error) {
	if uc.NewSecret != nil {
		return uc.NewSecret()
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
