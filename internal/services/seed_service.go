package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"lock-in/internal/blockchain"
	"lock-in/internal/logger"
	"lock-in/internal/models"
)

// SeedChallenge is a challenge to create, amounts in whole tokens
type SeedChallenge struct {
	Title       string
	Description string
	Reward      string
	MinStake    string
}

// DefaultSeedChallenges are the demo challenges the registry ships with
var DefaultSeedChallenges = []SeedChallenge{
	{
		Title:       "30 Days of Code",
		Description: "Commit code every day for 30 days. No excuses.",
		Reward:      "100",
		MinStake:    "1",
	},
	{
		Title:       "Morning Run Streak",
		Description: "Run 5km every morning before 8 AM for 2 weeks.",
		Reward:      "50",
		MinStake:    "1",
	},
	{
		Title:       "Design Daily",
		Description: "Create one UI component every day for 3 weeks.",
		Reward:      "75",
		MinStake:    "1",
	},
}

// Seeder creates challenges as the registry owner
type Seeder struct {
	chain    SeedChain
	ledger   TxRecorder
	decimals int32
	log      zerolog.Logger
}

// NewSeeder builds a seeder. ledger may be nil.
func NewSeeder(chain SeedChain, ledger TxRecorder, decimals int32) *Seeder {
	return &Seeder{
		chain:    chain,
		ledger:   ledger,
		decimals: decimals,
		log:      logger.Component("seed"),
	}
}

// Seed creates each challenge in order, waiting for every confirmation. It
// stops at the first failure and returns the hashes confirmed so far.
func (s *Seeder) Seed(ctx context.Context, signer *blockchain.Signer, challenges []SeedChallenge) ([]common.Hash, error) {
	if signer == nil {
		return nil, blockchain.ErrNoSigner
	}
	if err := s.chain.SwitchNetwork(ctx, signer, s.chain.RequiredChainID()); err != nil {
		return nil, fmt.Errorf("network switch failed: %w", err)
	}

	s.log.Info().Str("account", signer.Address().Hex()).Int("count", len(challenges)).Msg("Seeding challenges")

	hashes := make([]common.Hash, 0, len(challenges))
	for _, c := range challenges {
		metadataURI, err := EncodeMetadata(models.ChallengeMetadata{Title: c.Title, Description: c.Description})
		if err != nil {
			return hashes, err
		}
		reward, err := blockchain.ParseUnits(c.Reward, s.decimals)
		if err != nil {
			return hashes, fmt.Errorf("invalid reward for %q: %w", c.Title, err)
		}
		minStake, err := blockchain.ParseUnits(c.MinStake, s.decimals)
		if err != nil {
			return hashes, fmt.Errorf("invalid min stake for %q: %w", c.Title, err)
		}

		s.log.Info().Str("title", c.Title).Msg("Creating challenge")
		receipt, err := sendAndConfirm(ctx, s.chain, s.ledger, txStep{
			name:    "createChallenge",
			kind:    models.TransactionKindCreateChallenge,
			account: signer.Address(),
			amount:  reward,
			send: func() (*types.Transaction, error) {
				return s.chain.CreateChallenge(ctx, signer, metadataURI, reward, new(big.Int).Set(minStake))
			},
		})
		if err != nil {
			return hashes, err
		}
		hashes = append(hashes, receipt.TxHash)
	}

	s.log.Info().Int("created", len(hashes)).Msg("Seeding complete")
	return hashes, nil
}

// EncodeMetadata renders the raw JSON stored as a challenge's metadataURI
func EncodeMetadata(meta models.ChallengeMetadata) (string, error) {
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(b), nil
}
