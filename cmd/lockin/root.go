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

// rootOptions are shared by every subcommand
type rootOptions struct {
	output    outputOptions
	logLevel  string
	useLedger bool
}

// env is what a subcommand needs, built lazily from configuration
type env struct {
	cfg    *config.Config
	chain  *blockchain.Client
	ledger services.TxRecorder
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "lockin",
		Short:        "Browse, join and submit proofs for Lock In challenges",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.Configure(opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP((*string)(&opts.output.Format), "output", "o", string(tableFormat), "output format: table, csv or json")
	cmd.PersistentFlags().BoolVar(&opts.output.NoStyle, "no-style", false, "plain table output")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")
	cmd.PersistentFlags().BoolVar(&opts.useLedger, "ledger", false, "record sent transactions in the configured database")

	cmd.AddCommand(
		newChallengesCmd(opts),
		newJoinCmd(opts),
		newSubmitCmd(opts),
		newDashboardCmd(opts),
		newBalanceCmd(opts),
		newDiagnosticsCmd(opts),
	)
	return cmd
}

// signalContext is cancelled on SIGINT/SIGTERM. A transaction already sent
// stays sent; only the wait is abandoned.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (o *rootOptions) setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	chain, err := blockchain.Dial(ctx, cfg.Chain)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, chain: chain}
	if o.useLedger {
		db, err := database.Open(cfg)
		if err != nil {
			chain.Close()
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			chain.Close()
			return nil, err
		}
		e.ledger = services.NewLedger(repository.NewRepository(db))
	}
	return e, nil
}

func (e *env) close() {
	e.chain.Close()
}

// signer loads SIGNER_PRIVATE_KEY for commands that send transactions
func (e *env) signer() (*blockchain.Signer, error) {
	if err := e.cfg.RequireSigner(); err != nil {
		return nil, err
	}
	return blockchain.NewSigner(e.cfg.Chain.SignerKey, e.cfg.Chain.ChainID)
}

func (e *env) catalog() *services.CatalogService {
	return services.NewCatalogService(e.chain, e.chain.TokenDecimals())
}

func (e *env) dashboard() *services.DashboardService {
	return services.NewDashboardService(e.catalog(), e.chain, e.cfg.Dashboard.Concurrency)
}

func logStatus(step string) {
	log.Info().Str("status", step).Msg("workflow status")
}
