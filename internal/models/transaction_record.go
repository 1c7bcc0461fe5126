package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionKind string

const (
	TransactionKindApprove         TransactionKind = "APPROVE"
	TransactionKindJoin            TransactionKind = "JOIN"
	TransactionKindSubmitProof     TransactionKind = "SUBMIT_PROOF"
	TransactionKindCreateChallenge TransactionKind = "CREATE_CHALLENGE"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusConfirmed TransactionStatus = "CONFIRMED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// TransactionRecord is an audit entry for a transaction a workflow sent.
// It never decides participation; the registry does.
type TransactionRecord struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        TransactionKind   `gorm:"size:32;not null;index" json:"kind"`
	ChallengeID *uint64           `gorm:"index" json:"challenge_id,omitempty"`
	Account     string            `gorm:"size:42;not null;index" json:"account"`
	Amount      string            `gorm:"size:80" json:"amount,omitempty"`
	TxHash      string            `gorm:"size:66;uniqueIndex;not null" json:"tx_hash"`
	ChainID     string            `gorm:"size:20;not null" json:"chain_id"`
	Status      TransactionStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	BlockNumber *uint64           `json:"block_number,omitempty"`
	Error       string            `gorm:"size:1000" json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"`
}

func (TransactionRecord) TableName() string {
	return "transaction_records"
}
