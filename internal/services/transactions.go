package services

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"lock-in/internal/blockchain"
	"lock-in/internal/metrics"
	"lock-in/internal/models"
)

// txStep describes one transaction a workflow sends and waits for
type txStep struct {
	name        string
	kind        models.TransactionKind
	challengeID *uint64
	account     common.Address
	amount      *big.Int
	send        func() (*types.Transaction, error)
}

// sendAndConfirm sends the step's transaction, records it, and waits for the
// receipt. Any failure comes back as a *blockchain.TransactionError.
func sendAndConfirm(ctx context.Context, confirmer TxConfirmer, ledger TxRecorder, step txStep) (*types.Receipt, error) {
	tx, err := step.send()
	if err != nil {
		metrics.TransactionsSubmitted.WithLabelValues(string(step.kind), "send_failed").Inc()
		return nil, &blockchain.TransactionError{Step: step.name, Err: err}
	}
	if ledger != nil {
		ledger.RecordSubmitted(ctx, step.kind, step.challengeID, step.account, step.amount, tx)
	}

	receipt, err := confirmer.WaitConfirmed(ctx, tx)
	if ledger != nil {
		ledger.RecordOutcome(ctx, tx.Hash(), receipt, err)
	}
	if err != nil {
		metrics.TransactionsSubmitted.WithLabelValues(string(step.kind), "failed").Inc()
		return receipt, &blockchain.TransactionError{Step: step.name, TxHash: tx.Hash(), Err: err}
	}

	metrics.TransactionsSubmitted.WithLabelValues(string(step.kind), "confirmed").Inc()
	return receipt, nil
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
