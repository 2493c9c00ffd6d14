package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"veridoc/internal/domain"
)

type fakeDocStore struct {
	mu      sync.Mutex
	records map[string]*domain.DocumentRecord

	findErr error
}

func newFakeDocStore(records ...domain.DocumentRecord) *fakeDocStore {
	s := &fakeDocStore{records: make(map[string]*domain.DocumentRecord)}
	for _, record := range records {
		copied := record
		s.records[record.ID] = &copied
	}
	return s
}

func (s *fakeDocStore) Create(_ context.Context, record domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return errors.New("duplicate id")
	}
	copied := record
	s.records[record.ID] = &copied
	return nil
}

func (s *fakeDocStore) FindByID(_ context.Context, id string) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	record, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *fakeDocStore) FindByContentHash(_ context.Context, hashHex string) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.ContentHash == hashHex {
			copied := *record
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeDocStore) AtomicIncrement(_ context.Context, id, counter string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bump(id, counter, amount)
}

func (s *fakeDocStore) UpdateTimestamp(_ context.Context, id, field string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stamp(id, field, at)
}

func (s *fakeDocStore) RecordAccess(_ context.Context, id, counter, tsField string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, err := s.bump(id, counter, 1)
	if err != nil {
		return 0, err
	}
	if err := s.stamp(id, tsField, at); err != nil {
		return 0, err
	}
	return value, nil
}

func (s *fakeDocStore) RecordQuickAccess(ctx context.Context, id string, at time.Time) (int64, error) {
	return s.RecordAccess(ctx, id, domain.CounterVerification, domain.TimestampLastVerified, at)
}

func (s *fakeDocStore) UpdateContent(_ context.Context, id, contentHash, hashMode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	record.ContentHash = contentHash
	record.HashMode = hashMode
	return nil
}

func (s *fakeDocStore) MarkRevoked(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	record.Revoked = true
	record.RevokedAt = &at
	return nil
}

func (s *fakeDocStore) bump(id, counter string, amount int64) (int64, error) {
	record, ok := s.records[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	switch counter {
	case domain.CounterVerification:
		record.VerificationCount += amount
		return record.VerificationCount, nil
	case domain.CounterFullAccess:
		record.FullAccessCount += amount
		return record.FullAccessCount, nil
	case domain.CounterDownload:
		record.DownloadCount += amount
		return record.DownloadCount, nil
	default:
		return 0, errors.New("unknown counter " + counter)
	}
}

func (s *fakeDocStore) stamp(id, field string, at time.Time) error {
	record, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	switch field {
	case domain.TimestampLastVerified:
		record.LastVerifiedAt = &at
	case domain.TimestampLastFullAccess:
		record.LastFullAccessAt = &at
	default:
		return errors.New("unknown timestamp " + field)
	}
	return nil
}

func (s *fakeDocStore) snapshot(id string) domain.DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[id]
}

type fakeLedger struct {
	mu     sync.Mutex
	status domain.LedgerStatus
	err    error

	anchorCalls int
	revokeCalls int
	lastAnchor  string
	anchorErr   error
	revokeErr   error
}

func (l *fakeLedger) Anchor(_ context.Context, hashHex string, _ domain.AnchorMetadata) (domain.AnchorResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.anchorCalls++
	l.lastAnchor = hashHex
	if l.anchorErr != nil {
		return domain.AnchorResult{}, l.anchorErr
	}
	return domain.AnchorResult{TxRef: "tx-" + hashHex[:8]}, nil
}

func (l *fakeLedger) Status(context.Context, string) (domain.LedgerStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return domain.LedgerStatus{}, l.err
	}
	return l.status, nil
}

func (l *fakeLedger) Revoke(_ context.Context, hashHex string) (domain.RevokeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revokeCalls++
	if l.revokeErr != nil {
		return domain.RevokeResult{}, l.revokeErr
	}
	return domain.RevokeResult{TxRef: "rv-" + hashHex[:8]}, nil
}

type fakeBatchStore struct {
	mu      sync.Mutex
	batches map[string]domain.BatchAnchor
	leaves  map[string][]string
}

func newFakeBatchStore() *fakeBatchStore {
	return &fakeBatchStore{
		batches: make(map[string]domain.BatchAnchor),
		leaves:  make(map[string][]string),
	}
}

func (s *fakeBatchStore) Create(_ context.Context, batch domain.BatchAnchor, leafHashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batch.BatchID]; ok {
		return domain.ErrBatchExists
	}
	s.batches[batch.BatchID] = batch
	s.leaves[batch.BatchID] = append([]string(nil), leafHashes...)
	return nil
}

func (s *fakeBatchStore) FindByID(_ context.Context, batchID string) (*domain.BatchAnchor, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[batchID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return &batch, append([]string(nil), s.leaves[batchID]...), nil
}

type failingCache struct{}

var errCacheDown = errors.New("cache down")

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errCacheDown
}

func (failingCache) Delete(context.Context, string) error { return errCacheDown }

func (failingCache) Exists(context.Context, string) (bool, error) { return false, errCacheDown }

type staticPolicy struct {
	decision DisclosureDecision
	err      error
	calls    int
}

func (p *staticPolicy) EvaluateDisclosure(context.Context, string, string, bool) (DisclosureDecision, error) {
	p.calls++
	if p.err != nil {
		return DisclosureDecision{}, p.err
	}
	return p.decision, nil
}
