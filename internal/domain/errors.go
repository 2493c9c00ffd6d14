package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRateLimited       = errors.New("rate limited")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrProofNotFound     = errors.New("proof not found")
	ErrBatchExists       = errors.New("batch exists")
	ErrInvalidDocument   = errors.New("invalid document")
	ErrInvalidDigest     = errors.New("invalid digest")
)
