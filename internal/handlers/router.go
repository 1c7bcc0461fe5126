package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"lock-in/internal/auth"
	"lock-in/internal/logger"
	"lock-in/internal/metrics"
)

// Router bundles the handlers mounted by NewRouter. Nil handlers leave their
// routes unmounted.
type Router struct {
	Challenges  *ChallengeHandler
	Dashboard   *DashboardHandler
	Auth        *AuthHandler
	Diagnostics *DiagnosticsHandler
}

// CORSConfig is the permissive cross-origin policy of the public API
func CORSConfig() cors.Config {
	return cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Content-Type", "Authorization"},
		MaxAge:                    24 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(r Router) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware())
	router.Use(metrics.GinMiddleware())
	router.Use(cors.New(CORSConfig()))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", metrics.Handler())

	if r.Auth != nil {
		authRoutes := router.Group("/auth")
		{
			authRoutes.GET("/nonce", r.Auth.GetNonce)
			authRoutes.POST("/wallet", r.Auth.WalletLogin)
			authRoutes.POST("/logout", r.Auth.Logout)
			authRoutes.GET("/me", auth.AuthMiddleware(), r.Auth.GetMe)
		}
	}

	api := router.Group("/api")
	if r.Challenges != nil {
		api.GET("/challenges", r.Challenges.ListChallenges)
		api.OPTIONS("/challenges", Preflight)
		api.POST("/challenges/join", r.Challenges.JoinChallenge)
		api.OPTIONS("/challenges/join", Preflight)
		api.GET("/challenges/:id", r.Challenges.GetChallenge)
	}
	if r.Dashboard != nil {
		api.GET("/dashboard/:address", r.Dashboard.GetDashboard)

		me := api.Group("/me")
		me.Use(auth.AuthMiddleware())
		{
			me.GET("/challenges", r.Dashboard.GetMyChallenges)
			me.GET("/transactions", r.Dashboard.GetMyTransactions)
		}
	}
	if r.Diagnostics != nil {
		api.GET("/diagnostics", r.Diagnostics.GetDiagnostics)
	}

	return router
}
