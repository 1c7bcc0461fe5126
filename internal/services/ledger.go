package services

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lock-in/internal/logger"
	"lock-in/internal/models"
	"lock-in/internal/repository"
)

// TxRecorder receives every transaction a workflow sends and its outcome
type TxRecorder interface {
	RecordSubmitted(ctx context.Context, kind models.TransactionKind, challengeID *uint64, account common.Address, amount *big.Int, tx *types.Transaction)
	RecordOutcome(ctx context.Context, txHash common.Hash, receipt *types.Receipt, err error)
}

// Ledger persists transaction records. Failures to write are logged and
// never fail the workflow: the chain already holds the outcome.
type Ledger struct {
	repo *repository.Repository
	now  func() time.Time
	log  zerolog.Logger
}

func NewLedger(repo *repository.Repository) *Ledger {
	return &Ledger{
		repo: repo,
		now:  time.Now,
		log:  logger.Component("ledger"),
	}
}

// RecordSubmitted stores a PENDING record for tx
func (l *Ledger) RecordSubmitted(ctx context.Context, kind models.TransactionKind, challengeID *uint64, account common.Address, amount *big.Int, tx *types.Transaction) {
	now := l.now()
	rec := &models.TransactionRecord{
		ID:          uuid.New(),
		Kind:        kind,
		ChallengeID: challengeID,
		Account:     account.Hex(),
		TxHash:      tx.Hash().Hex(),
		ChainID:     tx.ChainId().String(),
		Status:      models.TransactionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if amount != nil {
		rec.Amount = amount.String()
	}
	if err := l.repo.CreateTransactionRecord(ctx, rec); err != nil {
		l.log.Error().Err(err).Str("tx", rec.TxHash).Msg("failed to record transaction")
	}
}

// RecordOutcome settles the record for txHash. A wait that ended without a
// receipt (timeout or cancellation) leaves it PENDING for the watcher.
func (l *Ledger) RecordOutcome(ctx context.Context, txHash common.Hash, receipt *types.Receipt, err error) {
	hash := txHash.Hex()
	switch {
	case receipt != nil && receipt.Status == types.ReceiptStatusSuccessful:
		if dbErr := l.repo.MarkTransactionConfirmed(ctx, hash, receipt.BlockNumber.Uint64(), l.now()); dbErr != nil {
			l.log.Error().Err(dbErr).Str("tx", hash).Msg("failed to mark transaction confirmed")
		}
	case receipt != nil:
		block := receipt.BlockNumber.Uint64()
		reason := "reverted"
		if err != nil {
			reason = err.Error()
		}
		if dbErr := l.repo.MarkTransactionFailed(ctx, hash, &block, reason); dbErr != nil {
			l.log.Error().Err(dbErr).Str("tx", hash).Msg("failed to mark transaction failed")
		}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		l.log.Warn().Str("tx", hash).Msg("confirmation wait ended without receipt; left pending")
	case err != nil:
		if dbErr := l.repo.MarkTransactionFailed(ctx, hash, nil, err.Error()); dbErr != nil {
			l.log.Error().Err(dbErr).Str("tx", hash).Msg("failed to mark transaction failed")
		}
	}
}

// ListByAccount returns the records an account sent
func (l *Ledger) ListByAccount(ctx context.Context, account common.Address, limit, offset int) ([]*models.TransactionRecord, error) {
	return l.repo.GetTransactionsByAccount(ctx, account.Hex(), limit, offset)
}

// ListPending returns records still waiting for a receipt
func (l *Ledger) ListPending(ctx context.Context, limit int) ([]*models.TransactionRecord, error) {
	return l.repo.GetPendingTransactions(ctx, limit)
}

// Touch records that the watcher checked a record without settling it
func (l *Ledger) Touch(ctx context.Context, rec *models.TransactionRecord) error {
	return l.repo.TouchPendingTransaction(ctx, rec.TxHash, l.now())
}

// Settle applies a receipt found later by the watcher
func (l *Ledger) Settle(ctx context.Context, rec *models.TransactionRecord, receipt *types.Receipt) error {
	block := receipt.BlockNumber.Uint64()
	if receipt.Status == types.ReceiptStatusSuccessful {
		return l.repo.MarkTransactionConfirmed(ctx, rec.TxHash, block, l.now())
	}
	return l.repo.MarkTransactionFailed(ctx, rec.TxHash, &block, "reverted")
}
