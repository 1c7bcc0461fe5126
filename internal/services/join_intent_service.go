package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lock-in/internal/logger"
	"lock-in/internal/models"
	"lock-in/internal/repository"
)

// JoinIntentService stores join announcements made through the API. The
// on-chain joinChallenge transaction remains the only real enrolment.
type JoinIntentService struct {
	repo *repository.Repository
	log  zerolog.Logger
}

func NewJoinIntentService(repo *repository.Repository) *JoinIntentService {
	return &JoinIntentService{repo: repo, log: logger.Component("join")}
}

// Record validates and stores a join intent
func (s *JoinIntentService) Record(ctx context.Context, challengeID, userAddress string) (*models.JoinIntent, error) {
	challengeID = strings.TrimSpace(challengeID)
	userAddress = strings.TrimSpace(userAddress)
	if challengeID == "" || userAddress == "" {
		return nil, ErrMissingFields
	}
	if !common.IsHexAddress(userAddress) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, userAddress)
	}

	intent := &models.JoinIntent{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		UserAddress: common.HexToAddress(userAddress).Hex(),
	}
	if err := s.repo.CreateJoinIntent(ctx, intent); err != nil {
		return nil, fmt.Errorf("failed to store join intent: %w", err)
	}

	s.log.Info().Str("user", intent.UserAddress).Str("challenge_id", challengeID).Msg("User joining challenge")
	return intent, nil
}
