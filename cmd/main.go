package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"lock-in/internal/auth"
	"lock-in/internal/blockchain"
	"lock-in/internal/config"
	"lock-in/internal/database"
	"lock-in/internal/handlers"
	"lock-in/internal/jobs"
	"lock-in/internal/logger"
	"lock-in/internal/repository"
	"lock-in/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Configure(cfg.App.LogLevel)
	if err := cfg.RequireServer(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Run migrations
	if err := database.AutoMigrate(database.GetDB()); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Connect to the chain
	dialCtx, cancelDial := context.WithTimeout(context.Background(), 30*time.Second)
	chain, err := blockchain.Dial(dialCtx, cfg.Chain)
	cancelDial()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to chain RPC")
	}
	defer chain.Close()

	// Initialize services
	repo := repository.NewRepository(database.GetDB())
	ledger := services.NewLedger(repo)
	catalog := services.NewCatalogService(chain, chain.TokenDecimals())
	dashboard := services.NewDashboardService(catalog, chain, cfg.Dashboard.Concurrency)
	intents := services.NewJoinIntentService(repo)
	authService := services.NewAuthService(repo)

	// Settle records whose confirmation wait timed out
	watcher := jobs.NewConfirmationWatcher(ledger, chain, cfg.App.WatcherInterval)
	go watcher.Start()
	defer watcher.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.Router{
		Challenges:  handlers.NewChallengeHandler(catalog, intents),
		Dashboard:   handlers.NewDashboardHandler(dashboard, ledger),
		Auth:        handlers.NewAuthHandler(authService),
		Diagnostics: handlers.NewDiagnosticsHandler(chain),
	})
	if cfg.Server.FrontendURL != "" {
		log.Info().Str("frontend", cfg.Server.FrontendURL).Msg("Frontend origin configured (all origins allowed)")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		log.Info().Msgf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Info().Msgf("Catalog: GET http://localhost:%s/api/challenges", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited")
}
