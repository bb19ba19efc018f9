package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/progress"
	"github.com/templui/goalkeeper/internal/view"
)

func SummaryCmd() *cobra.Command {
	var email, currency string

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print progress for every goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			backend, closeBackend, err := openBackend(cmd.Context(), cfg, email)
			if err != nil {
				return err
			}
			defer closeBackend()

			goals, err := backend.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load goals: %w", err)
			}

			if currency == "" {
				currency = cfg.DefaultCurrency
			}
			return writeSummary(cmd.OutOrStdout(), goals, view.NewMoney(currency, cfg.Locale))
		},
	}

	summaryCmd.Flags().StringVar(&email, "email", "", "Account to summarize (cloud mode)")
	summaryCmd.Flags().StringVar(&currency, "currency", "", "Currency code (defaults to CURRENCY)")
	return summaryCmd
}

func writeSummary(w io.Writer, goals []model.Goal, money view.Money) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GOAL\tTARGET\tBY\tACTIVE\tINACTIVE\tPROGRESS")
	for _, g := range goals {
		p := progress.Compute(g, money)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f%%\n",
			g.Name,
			money.Format(p.Target),
			view.FormatDate(g.EndDate),
			money.Format(p.ActiveTotal),
			money.Format(p.InactiveTotal),
			p.ActivePercent,
		)
	}
	return tw.Flush()
}
