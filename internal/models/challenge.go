package models

import (
	"time"
)

// Challenge is a registry record decoded for display. It is a read-through
// view of on-chain state as of FetchedAt and is never written back.
type Challenge struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	MetadataURI     string    `json:"metadata_uri"`
	RewardAmount    string    `json:"reward_amount"`
	MinStake        string    `json:"min_stake_raw"`
	MinStakeDisplay string    `json:"min_stake"`
	IsActive        bool      `json:"is_active"`
	MetadataValid   bool      `json:"metadata_valid"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// ChallengeMetadata is the JSON document stored in metadataURI
type ChallengeMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ChallengeSummary is the catalog item served by GET /api/challenges.
// Duration, participant count and required submissions are not stored on
// chain and carry fixed placeholder values.
type ChallengeSummary struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	RewardTokenAmount   string `json:"rewardTokenAmount"`
	DurationDays        int    `json:"durationDays"`
	ParticipantsCount   int    `json:"participantsCount"`
	MinStake            string `json:"minStake"`
	RequiredSubmissions int    `json:"requiredSubmissions"`
}

const (
	DefaultDurationDays        = 30
	DefaultRequiredSubmissions = 30
)

// Summary converts a challenge into its catalog representation
func (c Challenge) Summary() ChallengeSummary {
	return ChallengeSummary{
		ID:                  formatID(c.ID),
		Title:               c.Title,
		Description:         c.Description,
		RewardTokenAmount:   c.RewardAmount,
		DurationDays:        DefaultDurationDays,
		ParticipantsCount:   0,
		MinStake:            c.MinStakeDisplay,
		RequiredSubmissions: DefaultRequiredSubmissions,
	}
}
