package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lock-in/internal/config"
	"lock-in/internal/database"
	"lock-in/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		sqlDir      string
		pruneBefore time.Duration
	)

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Create the Lock In tables and apply SQL migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				log.Error().Err(err).Msg("Failed to load config")
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.Configure(cfg.App.LogLevel)

			if err := autoMigrate(cfg); err != nil {
				log.Error().Err(err).Msg("Auto migration failed")
				return err
			}
			if cfg.Database.Driver != "postgres" {
				log.Info().Str("driver", cfg.Database.Driver).Msg("Skipping SQL migrations (postgres only)")
				return nil
			}

			db, err := sql.Open("postgres", cfg.GetDSN())
			if err != nil {
				log.Error().Err(err).Msg("Failed to connect to database")
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()
			if err := db.Ping(); err != nil {
				log.Error().Err(err).Msg("Failed to ping database")
				return err
			}

			if err := applySQL(db, sqlDir); err != nil {
				log.Error().Err(err).Msg("SQL migration failed")
				return err
			}
			if pruneBefore > 0 {
				if err := pruneFailed(db, pruneBefore); err != nil {
					log.Error().Err(err).Msg("Pruning failed records failed")
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlDir, "dir", "migrations", "directory of .sql files applied in name order")
	cmd.Flags().DurationVar(&pruneBefore, "prune-failed-older-than", 0, "delete FAILED transaction records older than this (0 keeps all)")
	return cmd
}

func autoMigrate(cfg *config.Config) error {
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	return database.AutoMigrate(db)
}

func applySQL(db *sql.DB, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		body, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		log.Info().Str("file", filepath.Base(file)).Msg("Applying migration")
		if _, err := db.Exec(string(body)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", file, err)
		}
	}
	log.Info().Int("files", len(files)).Msg("Migrations applied successfully")
	return nil
}

func pruneFailed(db *sql.DB, olderThan time.Duration) error {
	result, err := db.Exec(
		`DELETE FROM transaction_records WHERE status = 'FAILED' AND created_at < $1`,
		time.Now().Add(-olderThan),
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	log.Info().Int64("rows", rows).Msg("Deleted failed transaction records")
	return nil
}
