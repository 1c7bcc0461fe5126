package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTTL    = 24 * time.Hour
	tokenIssuer = "lock-in"
)

// ErrNoSecret is returned before InitJWT has been called with a secret
var ErrNoSecret = errors.New("jwt secret not initialized")

var jwtSecret []byte

// InitJWT sets the HMAC secret sessions are signed with
func InitJWT(secret string) {
	jwtSecret = []byte(secret)
}

// Claims is a wallet session. The subject is the checksummed wallet address.
type Claims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

// Wallet returns the address the session was issued to
func (c *Claims) Wallet() string {
	return c.Subject
}

// GenerateToken issues a session for wallet
func GenerateToken(userID uint, wallet string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   wallet,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session for %s: %w", wallet, err)
	}
	return signed, nil
}

// ValidateToken checks signature, issuer and expiry and returns the session
func ValidateToken(tokenString string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid session: %w", jwt.ErrTokenInvalidSubject)
	}
	return claims, nil
}
