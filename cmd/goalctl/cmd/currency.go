package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/view"
)

func CurrencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "currency [CODE]",
		Short: "Show or set the saved display currency (local mode)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			backend, err := localBackend(cfg)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				code, err := backend.LoadCurrency(cmd.Context())
				if err != nil {
					return err
				}
				if code == "" {
					code = cfg.DefaultCurrency + " (default)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), code)
				return nil
			}

			code, err := view.ParseCurrency(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := backend.SaveCurrency(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}
