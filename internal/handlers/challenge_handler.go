package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lock-in/internal/logger"
	"lock-in/internal/models"
	"lock-in/internal/services"
)

// ChallengeHandler serves the catalog and the join-intent endpoint
type ChallengeHandler struct {
	catalog *services.CatalogService
	intents *services.JoinIntentService
	log     zerolog.Logger
}

func NewChallengeHandler(catalog *services.CatalogService, intents *services.JoinIntentService) *ChallengeHandler {
	return &ChallengeHandler{
		catalog: catalog,
		intents: intents,
		log:     logger.Component("challenges"),
	}
}

// ListChallenges returns the active catalog as a bare array
// GET /api/challenges
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	challenges, err := h.catalog.ListActiveChallenges(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Error fetching challenges")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch challenges"})
		return
	}

	out := make([]models.ChallengeSummary, 0, len(challenges))
	for _, ch := range challenges {
		out = append(out, ch.Summary())
	}
	c.JSON(http.StatusOK, out)
}

// GetChallenge returns one challenge, active or not
// GET /api/challenges/:id
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge ID"})
		return
	}

	challenge, err := h.catalog.GetChallenge(c.Request.Context(), id)
	if errors.Is(err, services.ErrChallengeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Uint64("challenge_id", id).Msg("Error fetching challenge")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"challenge": challenge,
			"summary":   challenge.Summary(),
		},
	})
}

type joinRequest struct {
	ChallengeID json.RawMessage `json:"challengeId"`
	UserAddress string          `json:"userAddress"`
}

// JoinChallenge records a join intent
// POST /api/challenges/join
func (h *ChallengeHandler) JoinChallenge(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challengeID, err := rawChallengeID(req.ChallengeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	_, err = h.intents.Record(c.Request.Context(), challengeID, req.UserAddress)
	switch {
	case errors.Is(err, services.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing challengeId or userAddress"})
		return
	case errors.Is(err, services.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid userAddress"})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Error joining challenge")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Joined challenge successfully",
	})
}

// rawChallengeID accepts a JSON number or string. Absent and null map to "".
func rawChallengeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
		return "", services.ErrInvalidChallengeID
	}
	return n.String(), nil
}

// Preflight answers OPTIONS with an empty body. Browser preflights carry an
// Origin and are answered by the cors middleware before reaching here.
func Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}
