package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/sorting"
)

func ExportCmd() *cobra.Command {
	var email, format string

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write all goals to stdout",
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

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeJSON(out, goals)
			case "csv":
				return writeCSV(out, goals)
			default:
				return fmt.Errorf("unknown format %q (json, csv)", format)
			}
		},
	}

	exportCmd.Flags().StringVar(&email, "email", "", "Account to export (cloud mode)")
	exportCmd.Flags().StringVar(&format, "format", "json", "Output format: json, csv")
	return exportCmd
}

func writeJSON(w io.Writer, goals []model.Goal) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(model.Document{Goals: model.CloneGoals(goals)})
}

// writeCSV writes one row per entry in each goal's display order. Goals
// without entries get one row with the entry columns empty.
func writeCSV(w io.Writer, goals []model.Goal) error {
	cw := csv.NewWriter(w)
	err := cw.Write([]string{"goal", "target", "end_date", "entry_date", "type", "amount", "active", "note"})
	if err != nil {
		return err
	}

	for _, g := range goals {
		head := []string{g.Name, formatFloat(g.Amount.Float()), g.EndDate}
		entries := sorting.Entries(g.Entries, sorting.ParseKey(g.EntrySort))
		if len(entries) == 0 {
			if err := cw.Write(append(head, "", "", "", "", "")); err != nil {
				return err
			}
			continue
		}
		for _, e := range entries {
			row := append(append([]string{}, head...),
				e.Date,
				e.Type,
				formatFloat(e.Amount.Float()),
				strconv.FormatBool(e.IsActive),
				e.Note,
			)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
