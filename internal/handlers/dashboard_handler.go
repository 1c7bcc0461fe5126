package handlers

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lock-in/internal/auth"
	"lock-in/internal/logger"
	"lock-in/internal/models"
	"lock-in/internal/services"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// DashboardHandler serves reconciled "my challenges" views and the ledger
type DashboardHandler struct {
	dashboard *services.DashboardService
	ledger    *services.Ledger
	log       zerolog.Logger
}

func NewDashboardHandler(dashboard *services.DashboardService, ledger *services.Ledger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		ledger:    ledger,
		log:       logger.Component("dashboard"),
	}
}

// GetDashboard reconciles the catalog for any address
// GET /api/dashboard/:address
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return
	}
	h.respondDashboard(c, common.HexToAddress(address))
}

// GetMyChallenges reconciles the catalog for the logged-in wallet
// GET /api/me/challenges
func (h *DashboardHandler) GetMyChallenges(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok || !common.IsHexAddress(wallet) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	h.respondDashboard(c, common.HexToAddress(wallet))
}

func (h *DashboardHandler) respondDashboard(c *gin.Context, user common.Address) {
	ctx := c.Request.Context()

	var (
		dashboard *models.Dashboard
		err       error
	)
	if c.Query("stakes") == "true" {
		dashboard, err = h.dashboard.MyChallengesWithStakes(ctx, user)
	} else {
		dashboard, err = h.dashboard.MyChallenges(ctx, user)
	}
	if err != nil {
		h.log.Error().Err(err).Str("user", user.Hex()).Msg("Error building dashboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch challenges"})
		return
	}

	services.SortByChallengeID(dashboard.Challenges)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dashboard,
	})
}

// GetMyTransactions lists ledger records for the logged-in wallet
// GET /api/me/transactions?limit=&offset=
func (h *DashboardHandler) GetMyTransactions(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok || !common.IsHexAddress(wallet) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit := queryInt(c, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	records, err := h.ledger.ListByAccount(c.Request.Context(), common.HexToAddress(wallet), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Str("wallet", wallet).Msg("Error listing transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"limit":   limit,
		"offset":  offset,
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
