package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"veridoc/internal/domain"
)

// DisclosureDecision is an optional operator veto on full disclosure.
type DisclosureDecision struct {
	AllowFull bool
	Reasons   []string
}

type DisclosurePolicy interface {
	EvaluateDisclosure(ctx context.Context, documentID, issuer string, revoked bool) (DisclosureDecision, error)
}

type VerifyRequest struct {
	DocumentID string
	Secret     string
	// Quick asks for the summary-only level regardless of any secret.
	Quick bool
}

// VerifyDocument is the tiered verification engine. The cache and the
// ledger are optimizations and best-effort lookups respectively: neither
// may abort a verification. The store's atomic access updates are the
// only mutation a verification performs.
type VerifyDocument struct {
	Store  domain.DocumentRepository
	Ledger domain.LedgerService
	Cache  domain.Cache
	Policy DisclosurePolicy

	CacheTTL time.Duration
	// PartialFieldKeys is the limited field subset disclosed at partial
	// level; anything not listed stays secret-gated.
	PartialFieldKeys []string

	Clock func() time.Time
}

// DisclosureLevelFor is the transition rule: a pure function of the
// lookup outcome and the secret comparison, never of request history.
func DisclosureLevelFor(found, secretProvided, secretMatches bool) domain.DisclosureLevel {
	switch {
	case !found:
		return domain.LevelInvalid
	case secretProvided && secretMatches:
		return domain.LevelFull
	default:
		// A mismatched secret degrades silently: the response is
		// indistinguishable from a no-secret request.
		return domain.LevelPartial
	}
}

func (uc *VerifyDocument) Execute(ctx context.Context, req VerifyRequest) (*domain.VerificationResult, error) {
	if req.DocumentID == "" {
		return &domain.VerificationResult{Level: domain.LevelInvalid}, nil
	}
	now := uc.now()

	cacheable := uc.Cache != nil && !req.Quick && req.Secret == ""
	cacheKey := resultCacheKey(req.DocumentID)
	if cacheable {
		if payload, ok, err := uc.Cache.Get(ctx, cacheKey); err == nil && ok {
			var cached domain.VerificationResult
			if json.Unmarshal(payload, &cached) == nil {
				return &cached, nil
			}
		}
	}

	record, err := uc.Store.FindByID(ctx, req.DocumentID)
	if errors.Is(err, domain.ErrNotFound) {
		// Unknown ids mutate nothing.
		return &domain.VerificationResult{Level: domain.LevelInvalid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	secretProvided := req.Secret != ""
	secretMatches := secretProvided && req.Secret == record.AccessSecret
	level := DisclosureLevelFor(true, secretProvided, secretMatches)
	if req.Quick {
		level = domain.LevelQuick
	}

	if level == domain.LevelFull && uc.Policy != nil {
		decision, err := uc.Policy.EvaluateDisclosure(ctx, record.ID, record.Issuer, record.Revoked)
		if err != nil || !decision.AllowFull {
			level = domain.LevelPartial
		}
	}

	var newCount int64
	switch level {
	case domain.LevelQuick:
		newCount, err = uc.Store.RecordQuickAccess(ctx, record.ID, now)
	case domain.LevelFull:
		newCount, err = uc.Store.RecordAccess(ctx, record.ID, domain.CounterFullAccess, domain.TimestampLastFullAccess, now)
	default:
		newCount, err = uc.Store.RecordAccess(ctx, record.ID, domain.CounterVerification, domain.TimestampLastVerified, now)
	}
	if err != nil {
		return nil, fmt.Errorf("record access: %w", err)
	}

	result := uc.compose(ctx, record, level, newCount, now)

	if cacheable && level == domain.LevelPartial {
		if payload, err := json.Marshal(result); err == nil {
			_ = uc.Cache.Set(ctx, cacheKey, payload, uc.CacheTTL)
		}
	}
	return result, nil
}

func (uc *VerifyDocument) compose(ctx context.Context, record *domain.DocumentRecord, level domain.DisclosureLevel, newCount int64, now time.Time) *domain.VerificationResult {
	summary := record.Summary
	result := &domain.VerificationResult{
		Level:        level,
		DocumentID:   record.ID,
		ContentHash:  record.ContentHash,
		Summary:      &summary,
		LedgerStatus: uc.ledgerState(ctx, record),
		Revoked:      record.Revoked,
		VerifiedAt:   &now,
	}

	switch level {
	case domain.LevelQuick:
		// Summary only; nothing secret-gated is even present.
	case domain.LevelPartial:
		result.Fields = partialFields(record.Detail.Fields, uc.PartialFieldKeys)
		result.Counters = &domain.AccessCounters{Verifications: newCount}
	case domain.LevelFull:
		detail := record.Detail
		result.Detail = &detail
		result.DownloadEligible = !record.Revoked
		result.Counters = &domain.AccessCounters{
			Verifications: record.VerificationCount,
			FullAccesses:  newCount,
			Downloads:     record.DownloadCount,
		}
	}
	return result
}

// ledgerState consults the ledger best-effort: an unreachable or
// timed-out ledger yields "unknown" and verification proceeds on local
// record state.
func (uc *VerifyDocument) ledgerState(ctx context.Context, record *domain.DocumentRecord) string {
	if uc.Ledger == nil {
		return domain.LedgerStateUnknown
	}
	status, err := uc.Ledger.Status(ctx, record.ContentHash)
	if err != nil {
		return domain.LedgerStateUnknown
	}
	switch {
	case status.Revoked:
		return domain.LedgerStateRevoked
	case status.Anchored:
		return domain.LedgerStateAnchored
	default:
		return domain.LedgerStateUnanchored
	}
}

func partialFields(fields map[string]any, keys []string) map[string]any {
	if len(fields) == 0 || len(keys) == 0 {
		return nil
	}
	out := make(map[string]any)
	for _, key := range keys {
		if value, ok := fields[key]; ok {
			out[key] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (uc *VerifyDocument) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock().UTC()
	}
	return time.Now().UTC()
}

func resultCacheKey(documentID string) string {
	sum := sha256.Sum256([]byte("verify|partial|" + documentID))
	return "verify:" + hex.EncodeToString(sum[:])
}
