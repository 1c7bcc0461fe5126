package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lock-in/internal/blockchain"
	"lock-in/internal/config"
	"lock-in/internal/database"
	"lock-in/internal/logger"
	"lock-in/internal/repository"
	"lock-in/internal/services"
)

func main() {
	if err := newSeedCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	var useLedger bool

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Create the demo challenges on the registry (owner key required)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger.Configure(cfg.App.LogLevel)
			if err := cfg.RequireSigner(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			chain, err := blockchain.Dial(ctx, cfg.Chain)
			if err != nil {
				return err
			}
			defer chain.Close()

			signer, err := blockchain.NewSigner(cfg.Chain.SignerKey, cfg.Chain.ChainID)
			if err != nil {
				return err
			}
			log.Info().Str("account", signer.Address().Hex()).Msg("Seeding challenges with account")

			var ledger services.TxRecorder
			if useLedger {
				db, err := database.Open(cfg)
				if err != nil {
					return err
				}
				if err := database.AutoMigrate(db); err != nil {
					return err
				}
				ledger = services.NewLedger(repository.NewRepository(db))
			}

			hashes, err := services.NewSeeder(chain, ledger, chain.TokenDecimals()).
				Seed(ctx, signer, services.DefaultSeedChallenges)
			for i, h := range hashes {
				cmd.Printf("%s: %s\n", services.DefaultSeedChallenges[i].Title, h.Hex())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&useLedger, "ledger", false, "record the transactions in the configured database")
	return cmd
}
