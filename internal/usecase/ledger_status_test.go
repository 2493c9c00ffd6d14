package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"veridoc/internal/domain"
)

func TestLedgerStatusFromLedger(t *testing.T) {
	anchoredAt := time.Unix(1700000500, 0).UTC()
	ledger := &fakeLedger{status: domain.LedgerStatus{Anchored: true, AnchoredAt: anchoredAt, Issuer: "acme"}}
	uc := &LedgerStatusQuery{Ledger: ledger, Store: newFakeDocStore()}

	result, err := uc.Execute(context.Background(), testHash)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.State != domain.LedgerStateAnchored || result.Source != StatusSourceLedger {
		t.Fatalf("result: %+v", result)
	}
	if result.AnchoredAt == nil || !result.AnchoredAt.Equal(anchoredAt) {
		t.Fatalf("anchored_at: %v", result.AnchoredAt)
	}
}

func TestLedgerStatusUnanchored(t *testing.T) {
	uc := &LedgerStatusQuery{Ledger: &fakeLedger{}, Store: newFakeDocStore()}
	result, err := uc.Execute(context.Background(), testHash)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.State != domain.LedgerStateUnanchored {
		t.Fatalf("state = %s", result.State)
	}
}

func TestLedgerStatusRevokedWins(t *testing.T) {
	ledger := &fakeLedger{status: domain.LedgerStatus{Anchored: true, Revoked: true}}
	uc := &LedgerStatusQuery{Ledger: ledger, Store: newFakeDocStore()}

	result, err := uc.Execute(context.Background(), testHash)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.State != domain.LedgerStateRevoked {
		t.Fatalf("state = %s", result.State)
	}
}

func TestLedgerStatusFallsBackToLocalRecord(t *testing.T) {
	ledger := &fakeLedger{err: domain.ErrLedgerUnavailable}
	store := newFakeDocStore(testRecord())
	uc := &LedgerStatusQuery{Ledger: ledger, Store: store}

	result, err := uc.Execute(context.Background(), testHash)
	if err != nil {
		t.Fatalf("ledger outage with local record must degrade: %v", err)
	}
	if result.Source != StatusSourceLocal {
		t.Fatalf("source = %s", result.Source)
	}
	if result.State != domain.LedgerStateUnknown {
		t.Fatalf("state = %s", result.State)
	}
}

func TestLedgerStatusLocalRevokedRecord(t *testing.T) {
	record := testRecord()
	record.Revoked = true
	uc := &LedgerStatusQuery{
		Ledger: &fakeLedger{err: domain.ErrLedgerUnavailable},
		Store:  newFakeDocStore(record),
	}

	result, err := uc.Execute(context.Background(), testHash)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.State != domain.LedgerStateRevoked || result.Source != StatusSourceLocal {
		t.Fatalf("result: %+v", result)
	}
}

func TestLedgerStatusUnknownHashEverywhere(t *testing.T) {
	uc := &LedgerStatusQuery{
		Ledger: &fakeLedger{err: domain.ErrLedgerUnavailable},
		Store:  newFakeDocStore(),
	}
	if _, err := uc.Execute(context.Background(), testHash); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerStatusRejectsBadHash(t *testing.T) {
	uc := &LedgerStatusQuery{Ledger: &fakeLedger{}, Store: newFakeDocStore()}
	if _, err := uc.Execute(context.Background(), "xyz"); !errors.Is(err, domain.ErrInvalidDigest) {
		t.Fatalf("expected ErrInvalidDigest, got %v", err)
	}
}
