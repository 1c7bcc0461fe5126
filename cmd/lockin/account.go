package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"lock-in/internal/blockchain"
	"lock-in/internal/models"
	"lock-in/internal/services"
)

var dashboardColumns = []column[models.MyChallenge]{
	{
		ColumnConfig: table.ColumnConfig{Name: "ID", Align: text.AlignRight},
		Value:        func(m models.MyChallenge) string { return strconv.FormatUint(m.Challenge.ID, 10) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Title", WidthMax: 32, WidthMaxEnforcer: text.WrapSoft},
		Value:        func(m models.MyChallenge) string { return m.Challenge.Title },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Status"},
		Value:        func(m models.MyChallenge) string { return string(m.Status) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Stake", Align: text.AlignRight},
		Value:        func(m models.MyChallenge) string { return m.Stake },
	},
}

// resolveAccount uses the argument when given, else the configured signer
func resolveAccount(e *env, args []string) (common.Address, error) {
	if len(args) > 0 {
		if !common.IsHexAddress(args[0]) {
			return common.Address{}, fmt.Errorf("invalid address %q", args[0])
		}
		return common.HexToAddress(args[0]), nil
	}
	signer, err := e.signer()
	if err != nil {
		return common.Address{}, fmt.Errorf("no address given and %w", err)
	}
	return signer.Address(), nil
}

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	var withStakes bool

	cmd := &cobra.Command{
		Use:   "dashboard [address]",
		Short: "Show joined challenges and proof status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			e, err := opts.setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			account, err := resolveAccount(e, args)
			if err != nil {
				return err
			}

			svc := e.dashboard()
			var dashboard *models.Dashboard
			if withStakes {
				dashboard, err = svc.MyChallengesWithStakes(ctx, account)
			} else {
				dashboard, err = svc.MyChallenges(ctx, account)
			}
			if err != nil {
				return err
			}
			return renderDashboard(cmd, opts.output, dashboard)
		},
	}

	cmd.Flags().BoolVar(&withStakes, "stakes", false, "also read the staked amount of each joined challenge")
	return cmd
}

func renderDashboard(cmd *cobra.Command, opts outputOptions, d *models.Dashboard) error {
	services.SortByChallengeID(d.Challenges)
	if err := render(cmd, opts, dashboardColumns, d.Challenges, d); err != nil {
		return err
	}
	if opts.Format != jsonFormat && len(d.Unavailable) > 0 {
		ids := make([]string, len(d.Unavailable))
		for i, id := range d.Unavailable {
			ids[i] = strconv.FormatUint(id, 10)
		}
		cmd.PrintErrf("could not check challenges: %s\n", strings.Join(ids, ", "))
	}
	return nil
}

func newBalanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show the payment token balance and the allowance granted to the registry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			e, err := opts.setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			account, err := resolveAccount(e, args)
			if err != nil {
				return err
			}

			balance, err := e.chain.GetTokenBalance(ctx, account)
			if err != nil {
				return err
			}
			allowance, err := e.chain.Allowance(ctx, account)
			if err != nil {
				return err
			}

			out := struct {
				Account   string `json:"account"`
				Balance   string `json:"balance"`
				Allowance string `json:"allowance"`
				Spender   string `json:"spender"`
			}{
				Account:   account.Hex(),
				Balance:   balance.String(),
				Allowance: blockchain.FormatUnits(allowance, e.chain.TokenDecimals()),
				Spender:   e.chain.RegistryAddress().Hex(),
			}
			if opts.output.Format == jsonFormat {
				return render[struct{}](cmd, opts.output, nil, nil, out)
			}
			keyValue(cmd, [][2]string{
				{"Account", out.Account},
				{"Balance", out.Balance},
				{"Allowance", out.Allowance},
				{"Spender", out.Spender},
			})
			return nil
		},
	}
}

func newDiagnosticsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Check the RPC endpoint, chain id and both contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			e, err := opts.setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			var signer *blockchain.Signer
			if e.cfg.Chain.SignerKey != "" {
				if signer, err = e.signer(); err != nil {
					return err
				}
			}

			result := e.chain.RunDiagnostics(ctx, signer)
			if opts.output.Format == jsonFormat {
				return render[struct{}](cmd, opts.output, nil, nil, result)
			}
			keyValue(cmd, [][2]string{
				{"RPC", result.RPCURL},
				{"RPC connected", strconv.FormatBool(result.RPCConnected)},
				{"RPC error", result.RPCError},
				{"Chain", fmt.Sprintf("%s (required %s)", result.NetworkChainID, result.RequiredChainID)},
				{"Latest block", strconv.FormatUint(result.LatestBlock, 10)},
				{"Registry", result.RegistryAddress},
				{"Next challenge id", strconv.FormatUint(result.NextChallengeID, 10)},
				{"Registry error", result.RegistryError},
				{"Token", result.TokenAddress},
				{"Token decimals", strconv.Itoa(int(result.TokenDecimals))},
				{"Token error", result.TokenError},
				{"Signer", result.SignerAddress},
			})
			if !result.RPCConnected || !result.ChainMatches {
				return fmt.Errorf("chain checks failed")
			}
			return nil
		},
	}
}
