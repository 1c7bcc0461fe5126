package services

import "errors"

var (
	ErrCatalogFetch       = errors.New("failed to fetch challenges")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrStakeBelowMinimum  = errors.New("stake below minimum")
	ErrAlreadyJoined      = errors.New("already joined this challenge")
	ErrNotJoined          = errors.New("challenge not joined")
	ErrAlreadySubmitted   = errors.New("proof already submitted")
	ErrInvalidProof       = errors.New("invalid proof uri")
	ErrMissingFields      = errors.New("missing challengeId or userAddress")
	ErrInvalidAddress     = errors.New("invalid wallet address")
	ErrInvalidChallengeID = errors.New("invalid challenge id")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrNonceExpired       = errors.New("login nonce missing or expired")
)
