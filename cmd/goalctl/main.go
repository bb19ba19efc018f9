package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/goalkeeper/cmd/goalctl/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "goalctl",
		Short:         "Admin tools for goalkeeper data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.ExportCmd())
	rootCmd.AddCommand(cmd.ImportCmd())
	rootCmd.AddCommand(cmd.SummaryCmd())
	rootCmd.AddCommand(cmd.CurrencyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
