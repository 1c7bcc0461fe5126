package models

import (
	"time"
)

// User represents a wallet that has logged in to the API
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	WalletAddress string     `gorm:"uniqueIndex;size:42;not null" json:"wallet_address"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// LoginNonce is the one-time challenge a wallet signs to log in
type LoginNonce struct {
	WalletAddress string    `gorm:"primaryKey;size:42" json:"wallet_address"`
	Nonce         string    `gorm:"size:64;not null" json:"nonce"`
	ExpiresAt     time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func (LoginNonce) TableName() string {
	return "login_nonces"
}
