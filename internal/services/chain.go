package services

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"lock-in/internal/blockchain"
)

// The interfaces below are the slices of *blockchain.Client each workflow
// depends on.

type RegistryReader interface {
	NextChallengeID(ctx context.Context) (uint64, error)
	Challenge(ctx context.Context, id uint64) (*blockchain.ChallengeRecord, error)
}

type ParticipationReader interface {
	HasJoined(ctx context.Context, id uint64, user common.Address) (bool, error)
	HasSubmitted(ctx context.Context, id uint64, user common.Address) (bool, error)
	UserStake(ctx context.Context, id uint64, user common.Address) (*big.Int, error)
}

type NetworkSwitcher interface {
	RequiredChainID() *big.Int
	SwitchNetwork(ctx context.Context, signer *blockchain.Signer, required *big.Int) error
}

type TxConfirmer interface {
	WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

type StakeChain interface {
	ParticipationReader
	NetworkSwitcher
	TxConfirmer
	Allowance(ctx context.Context, owner common.Address) (*big.Int, error)
	Approve(ctx context.Context, signer *blockchain.Signer, amount *big.Int) (*types.Transaction, error)
	JoinChallenge(ctx context.Context, signer *blockchain.Signer, id uint64, amount *big.Int) (*types.Transaction, error)
}

type ProofChain interface {
	ParticipationReader
	NetworkSwitcher
	TxConfirmer
	SubmitProof(ctx context.Context, signer *blockchain.Signer, id uint64, proofURI string) (*types.Transaction, error)
}

type SeedChain interface {
	NetworkSwitcher
	TxConfirmer
	CreateChallenge(ctx context.Context, signer *blockchain.Signer, metadataURI string, reward, minStake *big.Int) (*types.Transaction, error)
}

type ReceiptReader interface {
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

var (
	_ RegistryReader      = (*blockchain.Client)(nil)
	_ ParticipationReader = (*blockchain.Client)(nil)
	_ StakeChain          = (*blockchain.Client)(nil)
	_ ProofChain          = (*blockchain.Client)(nil)
	_ SeedChain           = (*blockchain.Client)(nil)
	_ ReceiptReader       = (*blockchain.Client)(nil)
)
