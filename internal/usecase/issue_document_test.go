package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"veridoc/internal/domain"
	"veridoc/internal/infra/fingerprint"
)

func newIssue(store *fakeDocStore, ledger domain.LedgerService) *IssueDocument {
	return &IssueDocument{
		Store:     store,
		Ledger:    ledger,
		Clock:     func() time.Time { return time.Unix(1700000000, 0) },
		NewID:     func() string { return testDocID },
		NewSecret: func() (string, error) { return testSecret, nil },
	}
}

func TestIssueRawContent(t *testing.T) {
	store := newFakeDocStore()
	uc := newIssue(store, nil)

	result, err := uc.Execute(context.Background(), IssueRequest{
		Content: []byte("hello"),
		Issuer:  "acme",
		Summary: domain.PrimarySummary{DocumentType: "invoice"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Record.ContentHash != testHash {
		t.Fatalf("content hash = %s, want %s", result.Record.ContentHash, testHash)
	}
	if result.Record.HashMode != domain.HashModeRaw {
		t.Fatalf("hash mode = %s", result.Record.HashMode)
	}
	if result.Record.AccessSecret != testSecret {
		t.Fatalf("issuance must return the access secret")
	}
	if result.Record.Summary.IntegrityHash != testHash {
		t.Fatalf("summary integrity hash not defaulted")
	}

	stored := store.snapshot(testDocID)
	if stored.ContentHash != testHash || stored.Issuer != "acme" {
		t.Fatalf("stored record: %+v", stored)
	}
}

func TestIssueStructuredFields(t *testing.T) {
	fields := map[string]any{"b": 2.0, "a": "x"}
	uc := newIssue(newFakeDocStore(), nil)

	result, err := uc.Execute(context.Background(), IssueRequest{
		Fields:  fields,
		Issuer:  "acme",
		Summary: domain.PrimarySummary{DocumentType: "report"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Record.HashMode != domain.HashModeStructured {
		t.Fatalf("hash mode = %s", result.Record.HashMode)
	}

	want, err := fingerprint.HashStructured(map[string]any{"a": "x", "b": 2.0})
	if err != nil {
		t.Fatalf("HashStructured: %v", err)
	}
	if result.Record.ContentHash != fingerprint.Hex(want) {
		t.Fatalf("structured hash = %s, want %s", result.Record.ContentHash, fingerprint.Hex(want))
	}
}

func TestIssueContentWinsOverFields(t *testing.T) {
	uc := newIssue(newFakeDocStore(), nil)
	result, err := uc.Execute(context.Background(), IssueRequest{
		Content: []byte("hello"),
		Fields:  map[string]any{"a": 1.0},
		Issuer:  "acme",
		Summary: domain.PrimarySummary{DocumentType: "invoice"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Record.HashMode != domain.HashModeRaw || result.Record.ContentHash != testHash {
		t.Fatalf("raw content must take precedence: %+v", result.Record)
	}
}

func TestIssueRejectsEmptyRequest(t *testing.T) {
	uc := newIssue(newFakeDocStore(), nil)
	if _, err := uc.Execute(context.Background(), IssueRequest{Issuer: "acme"}); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), IssueRequest{Content: []byte("x")}); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("missing issuer: expected ErrInvalidDocument, got %v", err)
	}
}

func TestIssueAnchorNow(t *testing.T) {
	ledger := &fakeLedger{}
	uc := newIssue(newFakeDocStore(), ledger)

	result, err := uc.Execute(context.Background(), IssueRequest{
		Content:   []byte("hello"),
		Issuer:    "acme",
		Summary:   domain.PrimarySummary{DocumentType: "invoice"},
		AnchorNow: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ledger.anchorCalls != 1 || ledger.lastAnchor != testHash {
		t.Fatalf("anchor not invoked: calls=%d hash=%s", ledger.anchorCalls, ledger.lastAnchor)
	}
	if result.LedgerRef == "" {
		t.Fatalf("ledger ref missing from issuance result")
	}
}

func TestIssueAnchorNowFailureKeepsRecord(t *testing.T) {
	ledger := &fakeLedger{anchorErr: domain.ErrLedgerUnavailable}
	store := newFakeDocStore()
	uc := newIssue(store, ledger)

	result, err := uc.Execute(context.Background(), IssueRequest{
		Content:   []byte("hello"),
		Issuer:    "acme",
		Summary:   domain.PrimarySummary{DocumentType: "invoice"},
		AnchorNow: true,
	})
	if !errors.Is(err, domain.ErrLedgerUnavailable) {
		t.Fatalf("anchor failure must surface, got %v", err)
	}
	// The document was persisted before the anchor attempt, so the id
	// and secret must not be lost with the error.
	if result == nil {
		t.Fatalf("expected the issued record alongside the error")
	}
	if result.Record.ID != testDocID || result.Record.AccessSecret != testSecret {
		t.Fatalf("record: %+v", result.Record)
	}
	if result.LedgerRef != "" {
		t.Fatalf("ledger ref must stay empty, got %q", result.LedgerRef)
	}
	if _, err := store.FindByID(context.Background(), testDocID); err != nil {
		t.Fatalf("stored record: %v", err)
	}
}

func TestUpdateContentRehashes(t *testing.T) {
	store := newFakeDocStore(testRecord())
	uc := newIssue(store, nil)

	newHash, err := uc.UpdateContent(context.Background(), testDocID, []byte("hello v2"), nil)
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	want := fingerprint.Hex(fingerprint.HashBytes([]byte("hello v2")))
	if newHash != want {
		t.Fatalf("new hash = %s, want %s", newHash, want)
	}
	if got := store.snapshot(testDocID).ContentHash; got != want {
		t.Fatalf("stored hash = %s", got)
	}
}
