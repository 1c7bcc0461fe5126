package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"lock-in/internal/blockchain"
	"lock-in/internal/logger"
	"lock-in/internal/models"
)

// ProofObserver is told about each status change of a submission
type ProofObserver func(models.ProofStatus)

// DashboardRefresher re-reads a user's dashboard after a state change
type DashboardRefresher interface {
	MyChallenges(ctx context.Context, user common.Address) (*models.Dashboard, error)
}

// ProofResult is returned by a confirmed submission. Dashboard is the
// refreshed view, nil when no refresher is set or the refresh failed.
type ProofResult struct {
	ChallengeID uint64            `json:"challenge_id"`
	ProofURI    string            `json:"proof_uri"`
	TxHash      common.Hash       `json:"tx_hash"`
	Dashboard   *models.Dashboard `json:"dashboard,omitempty"`
}

type ProofWorkflow struct {
	chain   ProofChain
	ledger  TxRecorder
	refresh DashboardRefresher
	log     zerolog.Logger
}

// NewProofWorkflow builds the workflow. ledger and refresh may be nil.
func NewProofWorkflow(chain ProofChain, ledger TxRecorder, refresh DashboardRefresher) *ProofWorkflow {
	return &ProofWorkflow{
		chain:   chain,
		ledger:  ledger,
		refresh: refresh,
		log:     logger.Component("proof"),
	}
}

// SubmitProof records proofURI for challengeID. The local joined/submitted
// checks only save a doomed transaction; a contract revert still surfaces
// as a TransactionError.
func (w *ProofWorkflow) SubmitProof(ctx context.Context, challengeID uint64, proofURI string, signer *blockchain.Signer, observe ProofObserver) (*ProofResult, error) {
	if observe == nil {
		observe = func(models.ProofStatus) {}
	}
	if signer == nil {
		return nil, blockchain.ErrNoSigner
	}
	proofURI = strings.TrimSpace(proofURI)
	if err := ValidateProofURI(proofURI); err != nil {
		return nil, err
	}

	result, err := w.submit(ctx, challengeID, proofURI, signer, observe)
	if err != nil {
		observe(models.ProofIdle)
		w.log.Error().Err(err).Uint64("challenge_id", challengeID).Str("account", signer.Address().Hex()).Msg("proof submission failed")
		return nil, err
	}
	observe(models.ProofSuccess)

	if w.refresh != nil {
		dashboard, err := w.refresh.MyChallenges(ctx, signer.Address())
		if err != nil {
			w.log.Warn().Err(err).Str("account", signer.Address().Hex()).Msg("dashboard refresh after proof failed")
		} else {
			result.Dashboard = dashboard
		}
	}
	return result, nil
}

func (w *ProofWorkflow) submit(ctx context.Context, challengeID uint64, proofURI string, signer *blockchain.Signer, observe ProofObserver) (*ProofResult, error) {
	account := signer.Address()

	joined, err := w.chain.HasJoined(ctx, challengeID, account)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if !joined {
		return nil, ErrNotJoined
	}
	submitted, err := w.chain.HasSubmitted(ctx, challengeID, account)
	if err != nil {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}
	if submitted {
		return nil, ErrAlreadySubmitted
	}

	if err := w.chain.SwitchNetwork(ctx, signer, w.chain.RequiredChainID()); err != nil {
		return nil, fmt.Errorf("network switch failed: %w", err)
	}

	observe(models.ProofSubmitting)
	receipt, err := sendAndConfirm(ctx, w.chain, w.ledger, txStep{
		name:        "submitProof",
		kind:        models.TransactionKindSubmitProof,
		challengeID: uint64Ptr(challengeID),
		account:     account,
		send: func() (*types.Transaction, error) {
			return w.chain.SubmitProof(ctx, signer, challengeID, proofURI)
		},
	})
	if err != nil {
		return nil, err
	}

	w.log.Info().Uint64("challenge_id", challengeID).Str("account", account.Hex()).Str("proof", proofURI).Msg("proof submitted")
	return &ProofResult{ChallengeID: challengeID, ProofURI: proofURI, TxHash: receipt.TxHash}, nil
}

// ValidateProofURI accepts absolute http(s) URLs only
func ValidateProofURI(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty uri", ErrInvalidProof)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an http(s) url", ErrInvalidProof, raw)
	}
	return nil
}
