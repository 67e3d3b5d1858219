package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/summary"
)

func newReportCommand() *cobra.Command {
	var (
		userID     string
		withPrompt bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a user's totals and expense breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg.LogLevel)

			res, err := OpenBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer res.Cleanup()

			return runReport(cmd.Context(), cmd.OutOrStdout(), res.Store, userID, withPrompt, time.Now())
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().BoolVar(&withPrompt, "prompt", false, "also print the analysis prompt sent to the model")

	return cmd
}

func runReport(ctx context.Context, out io.Writer, txs store.TransactionReader, userID string, withPrompt bool, now time.Time) error {
	list, err := txs.ListTransactions(ctx, userID, store.Query{Type: core.FilterAll})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	ov := analytics.BuildOverview(list, now)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Usuario:\t%s\n", userID)
	fmt.Fprintf(tw, "Transacciones:\t%d\n", len(list))
	fmt.Fprintf(tw, "Ingresos:\t%s\n", core.FormatCurrency(ov.Stats.Income))
	fmt.Fprintf(tw, "Gastos:\t%s\n", core.FormatCurrency(ov.Stats.Expenses))
	fmt.Fprintf(tw, "Balance:\t%s\n", core.FormatCurrency(ov.Stats.Balance))
	if ov.ExpenseRatio != "" {
		fmt.Fprintf(tw, "Gastos/Ingresos:\t%s%%\n", ov.ExpenseRatio)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(ov.Breakdown) > 0 {
		fmt.Fprintln(out, "\nGastos por categoría:")
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		for _, share := range ov.Breakdown {
			fmt.Fprintf(tw, "  %s\t%s\t%s%%\t\n", share.Name, core.FormatCurrency(share.Value), share.Percent)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if withPrompt {
		if len(list) > summary.MaxPromptTransactions {
			list = list[:summary.MaxPromptTransactions]
		}
		fmt.Fprintln(out, "\n"+summary.BuildPrompt(list))
	}
	return nil
}
