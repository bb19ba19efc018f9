package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/persistence"
)

func ImportCmd() *cobra.Command {
	var email string

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace all goals with the contents of an export file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			goals, err := persistence.DecodeGoals(raw)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			cfg := config.Load()
			backend, closeBackend, err := openBackend(cmd.Context(), cfg, email)
			if err != nil {
				return err
			}
			defer closeBackend()

			if err := backend.SaveAll(cmd.Context(), goals); err != nil {
				return fmt.Errorf("failed to save goals: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d goals\n", len(goals))
			return nil
		},
	}

	importCmd.Flags().StringVar(&email, "email", "", "Account to import into (cloud mode)")
	return importCmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return raw, nil
}
