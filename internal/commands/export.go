package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/journal"
)

func newExportCommand(g *globals) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export books as CSV",
	}
	exportCmd.AddCommand(newExportJournalCommand(g))
	exportCmd.AddCommand(newExportChartCommand(g))
	return exportCmd
}

func newExportJournalCommand(g *globals) *cobra.Command {
	var from, to, output string
	var drafts bool

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Export journal lines, one row per line",
		Args:  cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			ctx := cmd.Context()
			f := journal.ListFilter{}
			var err error
			if from != "" {
				if f.From, err = parseDate(from); err != nil {
					return err
				}
			}
			if to != "" {
				if f.To, err = parseDate(to); err != nil {
					return err
				}
			}

			entries, err := rt.journal.List(ctx, rt.company, f)
			if err != nil {
				return err
			}
			if !drafts {
				kept := entries[:0]
				for _, e := range entries {
					if e.State.AffectsBalances() {
						kept = append(kept, e)
					}
				}
				entries = kept
			}

			js, err := rt.journal.ListJournals(ctx, rt.company)
			if err != nil {
				return err
			}
			codes := make(map[uuid.UUID]string, len(js))
			for _, j := range js {
				codes[j.ID] = j.Code
			}

			return writeOutput(cmd, output, func(w io.Writer) error {
				return journal.WriteEntries(w, entries, codes)
			})
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&drafts, "drafts", false, "include draft and cancelled entries")

	return cmd
}

func newExportChartCommand(g *globals) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Export the chart of accounts",
		Args:  cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			accts, err := rt.accounts.List(cmd.Context(), rt.company, accounts.ListFilter{})
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return accounts.WriteAccounts(w, accts)
			})
		}),
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
