package models

import (
	"time"

	"github.com/google/uuid"
)

// JoinIntent records that a client announced a join through the API.
// The on-chain joinChallenge call is what actually enrols the user.
type JoinIntent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChallengeID string    `gorm:"size:78;not null;index" json:"challenge_id"`
	UserAddress string    `gorm:"size:42;not null;index" json:"user_address"`
	CreatedAt   time.Time `json:"created_at"`
}

func (JoinIntent) TableName() string {
	return "join_intents"
}
