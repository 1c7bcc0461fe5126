package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"lock-in/internal/blockchain"
	"lock-in/internal/models"
)

func newChallengesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "challenges",
		Aliases: []string{"challenge"},
		Short:   "Read the challenge catalog from the registry",
	}
	cmd.AddCommand(newChallengesListCmd(opts), newChallengesShowCmd(opts))
	return cmd
}

func challengeColumns(decimals int32) []column[models.Challenge] {
	return []column[models.Challenge]{
		{
			ColumnConfig: table.ColumnConfig{Name: "ID", Align: text.AlignRight},
			Value:        func(c models.Challenge) string { return strconv.FormatUint(c.ID, 10) },
		},
		{
			ColumnConfig: table.ColumnConfig{Name: "Title", WidthMax: 32, WidthMaxEnforcer: text.WrapSoft},
			Value:        func(c models.Challenge) string { return c.Title },
		},
		{
			ColumnConfig: table.ColumnConfig{Name: "Reward", Align: text.AlignRight},
			Value: func(c models.Challenge) string {
				return formatRaw(c.RewardAmount, decimals)
			},
		},
		{
			ColumnConfig: table.ColumnConfig{Name: "Min stake", Align: text.AlignRight},
			Value:        func(c models.Challenge) string { return c.MinStakeDisplay },
		},
		{
			ColumnConfig: table.ColumnConfig{Name: "Fetched"},
			Value:        func(c models.Challenge) string { return c.FetchedAt.Format("15:04:05") },
		},
	}
}

func newChallengesListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active challenges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			e, err := opts.setup(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			challenges, err := e.catalog().ListActiveChallenges(ctx)
			if err != nil {
				return err
			}
			return render(cmd, opts.output, challengeColumns(e.chain.TokenDecimals()), challenges, challenges)
		},
	}
}

func newChallengesShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one challenge, active or not",
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

			c, err := e.catalog().GetChallenge(ctx, id)
			if err != nil {
				return err
			}
			if opts.output.Format == jsonFormat {
				return render[models.Challenge](cmd, opts.output, nil, nil, c)
			}

			keyValue(cmd, [][2]string{
				{"ID", strconv.FormatUint(c.ID, 10)},
				{"Title", c.Title},
				{"Description", c.Description},
				{"Active", strconv.FormatBool(c.IsActive)},
				{"Reward", formatRaw(c.RewardAmount, e.chain.TokenDecimals())},
				{"Min stake", c.MinStakeDisplay},
				{"Metadata", c.MetadataURI},
				{"Fetched at", c.FetchedAt.Format("2006-01-02 15:04:05 MST")},
			})
			return nil
		},
	}
}

func parseChallengeID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid challenge id %q", s)
	}
	return id, nil
}

// formatRaw renders a smallest-unit decimal string with token decimals
func formatRaw(raw string, decimals int32) string {
	v, ok := parseBig(raw)
	if !ok {
		return raw
	}
	return blockchain.FormatUnits(v, decimals)
}
