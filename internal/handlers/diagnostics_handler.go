package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lock-in/internal/blockchain"
)

// Diagnoser runs the chain connectivity checks
type Diagnoser interface {
	RunDiagnostics(ctx context.Context, signer *blockchain.Signer) *blockchain.DiagnosticResult
}

type DiagnosticsHandler struct {
	chain Diagnoser
}

func NewDiagnosticsHandler(chain Diagnoser) *DiagnosticsHandler {
	return &DiagnosticsHandler{chain: chain}
}

// GetDiagnostics reports RPC, registry and token health
// GET /api/diagnostics
func (h *DiagnosticsHandler) GetDiagnostics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	// The server never holds a signing key.
	result := h.chain.RunDiagnostics(ctx, nil)
	status := http.StatusOK
	if !result.RPCConnected {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success": result.RPCConnected,
		"data":    result,
	})
}
