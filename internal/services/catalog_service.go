package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vincent-petithory/dataurl"

	"lock-in/internal/blockchain"
	"lock-in/internal/logger"
	"lock-in/internal/metrics"
	"lock-in/internal/models"
)

const fallbackDescription = "No metadata"

// CatalogService reads challenges straight from the registry
type CatalogService struct {
	chain    RegistryReader
	decimals int32
	now      func() time.Time
	log      zerolog.Logger
}

func NewCatalogService(chain RegistryReader, decimals int32) *CatalogService {
	return &CatalogService{
		chain:    chain,
		decimals: decimals,
		now:      time.Now,
		log:      logger.Component("catalog"),
	}
}

// ListActiveChallenges enumerates ids [0, nextChallengeId) in order and
// returns the active ones. Any failed record read aborts the listing.
func (s *CatalogService) ListActiveChallenges(ctx context.Context) ([]models.Challenge, error) {
	start := time.Now()
	challenges, err := s.listActive(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.CatalogFetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return challenges, err
}

func (s *CatalogService) listActive(ctx context.Context) ([]models.Challenge, error) {
	next, err := s.chain.NextChallengeID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	// next is chain-controlled and may be arbitrarily large
	var challenges []models.Challenge
	for id := uint64(0); id < next; id++ {
		rec, err := s.chain.Challenge(ctx, id)
		if err != nil {
			s.log.Error().Err(err).Uint64("challenge_id", id).Msg("failed to fetch challenge")
			return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
		}
		if !rec.IsActive {
			continue
		}
		challenges = append(challenges, s.decode(id, rec))
	}

	s.log.Debug().Uint64("next_id", next).Int("active", len(challenges)).Msg("catalog fetched")
	return challenges, nil
}

// GetChallenge returns one record whether or not it is active
func (s *CatalogService) GetChallenge(ctx context.Context, id uint64) (*models.Challenge, error) {
	next, err := s.chain.NextChallengeID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}
	if id >= next {
		return nil, ErrChallengeNotFound
	}
	rec, err := s.chain.Challenge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}
	c := s.decode(id, rec)
	return &c, nil
}

func (s *CatalogService) decode(id uint64, rec *blockchain.ChallengeRecord) models.Challenge {
	if rec.ID != nil && (!rec.ID.IsUint64() || rec.ID.Uint64() != id) {
		s.log.Warn().Uint64("challenge_id", id).Str("record_id", rec.ID.String()).Msg("record id differs from index")
	}

	meta, err := DecodeMetadata(rec.MetadataURI)
	valid := err == nil
	if err != nil {
		s.log.Warn().Err(err).Uint64("challenge_id", id).Str("metadata", rec.MetadataURI).Msg("Failed to parse metadata")
	}
	if meta.Title == "" {
		meta.Title = fmt.Sprintf("Challenge #%d", id)
	}
	if meta.Description == "" {
		meta.Description = fallbackDescription
	}

	return models.Challenge{
		ID:              id,
		Title:           meta.Title,
		Description:     meta.Description,
		MetadataURI:     rec.MetadataURI,
		RewardAmount:    bigString(rec.RewardAmount),
		MinStake:        bigString(rec.MinStake),
		MinStakeDisplay: blockchain.FormatUnits(rec.MinStake, s.decimals),
		IsActive:        rec.IsActive,
		MetadataValid:   valid,
		FetchedAt:       s.now().UTC(),
	}
}

// DecodeMetadata reads {title, description} from inline JSON or a
// data:application/json URI. Remote URIs are not fetched.
func DecodeMetadata(raw string) (models.ChallengeMetadata, error) {
	var meta models.ChallengeMetadata

	payload := []byte(strings.TrimSpace(raw))
	if strings.HasPrefix(string(payload), "data:") {
		du, err := dataurl.DecodeString(string(payload))
		if err != nil {
			return meta, fmt.Errorf("invalid data uri: %w", err)
		}
		if ct := du.MediaType.ContentType(); ct != "application/json" && ct != "text/plain" {
			return meta, fmt.Errorf("unsupported metadata type %q", ct)
		}
		payload = du.Data
	}

	if err := json.Unmarshal(payload, &meta); err != nil {
		return models.ChallengeMetadata{}, fmt.Errorf("invalid metadata json: %w", err)
	}
	return meta, nil
}
