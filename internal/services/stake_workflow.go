package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"lock-in/internal/blockchain"
	"lock-in/internal/logger"
	"lock-in/internal/models"
)

// StakeObserver is told about each status change of a join
type StakeObserver func(models.StakeStatus)

// JoinResult lists what a successful join sent
type JoinResult struct {
	ChallengeID uint64       `json:"challenge_id"`
	Amount      string       `json:"amount"`
	ApprovalTx  *common.Hash `json:"approval_tx,omitempty"`
	JoinTx      common.Hash  `json:"join_tx"`
}

// StakeWorkflow runs allowance check → approve (when short) → join
type StakeWorkflow struct {
	chain    StakeChain
	ledger   TxRecorder
	minStake *big.Int
	log      zerolog.Logger
}

// NewStakeWorkflow builds the workflow. The global minimum stake is one whole
// token. ledger may be nil.
func NewStakeWorkflow(chain StakeChain, ledger TxRecorder, decimals int32) *StakeWorkflow {
	return &StakeWorkflow{
		chain:    chain,
		ledger:   ledger,
		minStake: blockchain.OneToken(decimals),
		log:      logger.Component("stake"),
	}
}

// Join stakes amount on challengeID. Failed steps are not rolled back; a
// rerun re-reads the allowance and skips an approval that already landed.
func (w *StakeWorkflow) Join(ctx context.Context, challengeID uint64, amount *big.Int, signer *blockchain.Signer, observe StakeObserver) (*JoinResult, error) {
	if observe == nil {
		observe = func(models.StakeStatus) {}
	}
	if signer == nil {
		return nil, blockchain.ErrNoSigner
	}
	if amount == nil || amount.Cmp(w.minStake) < 0 {
		return nil, fmt.Errorf("%w: got %s, need at least %s", ErrStakeBelowMinimum, bigString(amount), w.minStake)
	}

	result, err := w.join(ctx, challengeID, amount, signer, observe)
	if err != nil {
		observe(models.StakeIdle)
		w.log.Error().Err(err).Uint64("challenge_id", challengeID).Str("account", signer.Address().Hex()).Msg("join failed")
		return nil, err
	}
	observe(models.StakeSuccess)
	return result, nil
}

func (w *StakeWorkflow) join(ctx context.Context, challengeID uint64, amount *big.Int, signer *blockchain.Signer, observe StakeObserver) (*JoinResult, error) {
	if err := w.chain.SwitchNetwork(ctx, signer, w.chain.RequiredChainID()); err != nil {
		return nil, fmt.Errorf("network switch failed: %w", err)
	}

	account := signer.Address()
	joined, err := w.chain.HasJoined(ctx, challengeID, account)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if joined {
		return nil, ErrAlreadyJoined
	}

	result := &JoinResult{ChallengeID: challengeID, Amount: amount.String()}

	// 1. Check allowance
	allowance, err := w.chain.Allowance(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to read allowance: %w", err)
	}

	if allowance.Cmp(amount) < 0 {
		observe(models.StakeApproving)
		w.log.Info().Str("allowance", allowance.String()).Str("amount", amount.String()).Msg("approving stake")
		receipt, err := sendAndConfirm(ctx, w.chain, w.ledger, txStep{
			name:        "approve",
			kind:        models.TransactionKindApprove,
			challengeID: uint64Ptr(challengeID),
			account:     account,
			amount:      amount,
			send: func() (*types.Transaction, error) {
				return w.chain.Approve(ctx, signer, amount)
			},
		})
		if err != nil {
			return nil, err
		}
		hash := receipt.TxHash
		result.ApprovalTx = &hash
	}

	// 2. Join
	observe(models.StakeJoining)
	receipt, err := sendAndConfirm(ctx, w.chain, w.ledger, txStep{
		name:        "join",
		kind:        models.TransactionKindJoin,
		challengeID: uint64Ptr(challengeID),
		account:     account,
		amount:      amount,
		send: func() (*types.Transaction, error) {
			return w.chain.JoinChallenge(ctx, signer, challengeID, amount)
		},
	})
	if err != nil {
		return nil, err
	}
	result.JoinTx = receipt.TxHash

	w.log.Info().Uint64("challenge_id", challengeID).Str("account", account.Hex()).Str("amount", amount.String()).Msg("joined challenge")
	return result, nil
}
