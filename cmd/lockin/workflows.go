package main

import (
	"math/big"
	"strconv"

	"github.com/spf13/cobra"

	"lock-in/internal/blockchain"
	"lock-in/internal/models"
	"lock-in/internal/services"
)

func newJoinCmd(opts *rootOptions) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "join <challenge-id>",
		Short: "Stake on a challenge (approves the token first when needed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChallengeID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			e, err := opts.setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			stake, err := blockchain.ParseUnits(amount, e.chain.TokenDecimals())
			if err != nil {
				return err
			}
			signer, err := e.signer()
			if err != nil {
				return err
			}

			workflow := services.NewStakeWorkflow(e.chain, e.ledger, e.chain.TokenDecimals())
			result, err := workflow.Join(ctx, id, stake, signer, func(s models.StakeStatus) {
				logStatus(string(s))
				if s == models.StakeApproving || s == models.StakeJoining {
					cmd.Printf("%s...\n", s)
				}
			})
			if err != nil {
				return err
			}

			if opts.output.Format == jsonFormat {
				return render[services.JoinResult](cmd, opts.output, nil, nil, result)
			}
			approval := "not needed"
			if result.ApprovalTx != nil {
				approval = result.ApprovalTx.Hex()
			}
			keyValue(cmd, [][2]string{
				{"Challenge", strconv.FormatUint(result.ChallengeID, 10)},
				{"Stake", blockchain.FormatUnits(stake, e.chain.TokenDecimals())},
				{"Approval tx", approval},
				{"Join tx", result.JoinTx.Hex()},
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "1", "stake in whole tokens, e.g. 1 or 2.5")
	return cmd
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <challenge-id> <proof-url>",
		Short: "Submit a proof URL for a joined challenge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChallengeID(args[0])
			if err != nil {
				return err
			}
			if err := services.ValidateProofURI(args[1]); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			e, err := opts.setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			signer, err := e.signer()
			if err != nil {
				return err
			}

			workflow := services.NewProofWorkflow(e.chain, e.ledger, e.dashboard())
			result, err := workflow.SubmitProof(ctx, id, args[1], signer, func(s models.ProofStatus) {
				logStatus(string(s))
				if s == models.ProofSubmitting {
					cmd.Printf("%s...\n", s)
				}
			})
			if err != nil {
				return err
			}

			if opts.output.Format == jsonFormat {
				return render[services.ProofResult](cmd, opts.output, nil, nil, result)
			}
			keyValue(cmd, [][2]string{
				{"Challenge", strconv.FormatUint(result.ChallengeID, 10)},
				{"Proof", result.ProofURI},
				{"Tx", result.TxHash.Hex()},
			})
			if result.Dashboard != nil {
				cmd.Println()
				return renderDashboard(cmd, opts.output, result.Dashboard)
			}
			return nil
		},
	}
}

func parseBig(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
