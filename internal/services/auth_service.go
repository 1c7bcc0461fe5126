package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"lock-in/internal/auth"
	"lock-in/internal/blockchain"
	"lock-in/internal/logger"
	"lock-in/internal/models"
	"lock-in/internal/repository"
)

const nonceTTL = 5 * time.Minute

// LoginChallenge is what a wallet must sign to log in
type LoginChallenge struct {
	Address   string    `json:"address"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService handles wallet login
type AuthService struct {
	repo *repository.Repository
	now  func() time.Time
	log  zerolog.Logger
}

func NewAuthService(repo *repository.Repository) *AuthService {
	return &AuthService{repo: repo, now: time.Now, log: logger.Component("auth")}
}

// LoginMessage is the personal_sign text for a nonce
func LoginMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to Lock In\n\nWallet: %s\nNonce: %s", address, nonce)
}

// IssueNonce stores a fresh nonce for the wallet, replacing any earlier one
func (s *AuthService) IssueNonce(ctx context.Context, walletAddress string) (*LoginChallenge, error) {
	if !common.IsHexAddress(walletAddress) {
		return nil, ErrInvalidAddress
	}
	address := common.HexToAddress(walletAddress).Hex()

	nonce, err := generateNonce(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	now := s.now()
	rec := &models.LoginNonce{
		WalletAddress: address,
		Nonce:         nonce,
		ExpiresAt:     now.Add(nonceTTL),
		CreatedAt:     now,
	}
	if err := s.repo.UpsertLoginNonce(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}

	return &LoginChallenge{
		Address:   address,
		Message:   LoginMessage(address, nonce),
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// WalletLogin verifies the signature over the pending login message, finds
// or creates the user and returns a JWT. The nonce is consumed either way.
func (s *AuthService) WalletLogin(ctx context.Context, walletAddress, signatureHex string) (string, *models.User, error) {
	if !common.IsHexAddress(walletAddress) {
		return "", nil, ErrInvalidAddress
	}
	address := common.HexToAddress(walletAddress)

	nonce, err := s.repo.ConsumeLoginNonce(ctx, address.Hex())
	if err != nil {
		return "", nil, fmt.Errorf("database error: %w", err)
	}
	if nonce == nil || s.now().After(nonce.ExpiresAt) {
		return "", nil, ErrNonceExpired
	}

	sig, err := hexutil.Decode(ensureHexPrefix(signatureHex))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	recovered, err := blockchain.RecoverSigner([]byte(LoginMessage(address.Hex(), nonce.Nonce)), sig)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if recovered != address {
		return "", nil, fmt.Errorf("%w: signed by %s", ErrInvalidSignature, recovered.Hex())
	}

	user, created, err := s.repo.FindOrCreateUser(ctx, address.Hex())
	if err != nil {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}
	now := s.now()
	if err := s.repo.TouchUserLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record login time")
	} else {
		user.LastLoginAt = &now
	}
	if created {
		s.log.Info().Str("wallet", address.Hex()).Uint("user_id", user.ID).Msg("New user created")
	} else {
		s.log.Info().Str("wallet", address.Hex()).Uint("user_id", user.ID).Msg("User logged in")
	}

	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func generateNonce(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func ensureHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}
