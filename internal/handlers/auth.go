package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lock-in/internal/auth"
	"lock-in/internal/logger"
	"lock-in/internal/services"
)

// AuthHandler handles wallet login endpoints
type AuthHandler struct {
	authService *services.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         logger.Component("auth"),
	}
}

// GetNonce issues the message a wallet signs to log in
// GET /auth/nonce?address=0x...
func (h *AuthHandler) GetNonce(c *gin.Context) {
	challenge, err := h.authService.IssueNonce(c.Request.Context(), c.Query("address"))
	if errors.Is(err, services.ErrInvalidAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to issue nonce")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue nonce"})
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// WalletLogin authenticates a wallet by its personal_sign signature over
// the message returned from GetNonce.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.authService.WalletLogin(c.Request.Context(), req.WalletAddress, req.Signature)
	switch {
	case errors.Is(err, services.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	case errors.Is(err, services.ErrNonceExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "nonce missing or expired"})
		return
	case errors.Is(err, services.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	case err != nil:
		h.log.Error().Err(err).Str("wallet", req.WalletAddress).Msg("wallet login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout handles user logout (stateless JWT, client-side only)
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}

// GetMe returns the currently authenticated user's profile
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
