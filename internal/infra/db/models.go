package db

import "time"

type DocumentModel struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	ContentHash  string `gorm:"index;not null"`
	HashMode     string `gorm:"not null"`
	AccessSecret string `gorm:"not null"`
	Issuer       string `gorm:"index"`

	SummaryJSON []byte `gorm:"type:jsonb;not null"`
	DetailJSON  []byte `gorm:"type:jsonb;not null"`

	VerificationCount int64 `gorm:"not null;default:0"`
	FullAccessCount   int64 `gorm:"not null;default:0"`
	DownloadCount     int64 `gorm:"not null;default:0"`

	LastVerifiedAt   *time.Time
	LastFullAccessAt *time.Time

	Revoked   bool `gorm:"not null;default:false"`
	RevokedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
}

func (DocumentModel) TableName() string {
	return "documents"
}

type BatchModel struct {
	BatchID    string    `gorm:"primaryKey"`
	MerkleRoot string    `gorm:"index;not null"`
	LeafCount  int       `gorm:"not null"`
	Issuer     string    `gorm:"not null"`
	LedgerRef  string    `gorm:"not null"`
	AnchoredAt time.Time `gorm:"not null"`
}

func (BatchModel) TableName() string {
	return "batch_anchors"
}

type BatchLeafModel struct {
	ID        int64  `gorm:"primaryKey"`
	BatchID   string `gorm:"index;not null"`
	LeafIndex int    `gorm:"not null"`
	LeafHash  string `gorm:"index;not null"`
}

func (BatchLeafModel) TableName() string {
	return "batch_leaves"
}

type LedgerReceiptModel struct {
	ID          int64  `gorm:"primaryKey"`
	Provider    string `gorm:"not null"`
	PayloadHash string `gorm:"index;not null"`
	Status      string `gorm:"not null"`
	ErrorCode   *string
	TxRef       *string
	CreatedAt   time.Time `gorm:"not null"`
}

func (LedgerReceiptModel) TableName() string {
	return "ledger_receipts"
}
