package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/statements"
)

func newReportCommand(g *globals) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements",
	}
	reportCmd.AddCommand(newTrialBalanceCommand(g))
	reportCmd.AddCommand(newBalanceSheetCommand(g))
	reportCmd.AddCommand(newIncomeStatementCommand(g))
	return reportCmd
}

func newTrialBalanceCommand(g *globals) *cobra.Command {
	var asOf string
	var zero bool

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance",
		Args:  cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			on, err := parseDate(asOf)
			if err != nil {
				return err
			}
			tb, err := rt.reports.TrialBalance(cmd.Context(), rt.company, on, zero)
			if err != nil {
				return err
			}
			return statements.RenderTrialBalance(cmd.OutOrStdout(), tb)
		}),
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "report date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&zero, "zero", false, "include accounts without balance or activity")

	return cmd
}

func newBalanceSheetCommand(g *globals) *cobra.Command {
	var asOf string
	var zero bool

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Print the balance sheet",
		Args:  cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			on, err := parseDate(asOf)
			if err != nil {
				return err
			}
			bs, err := rt.reports.BalanceSheet(cmd.Context(), rt.company, on, zero)
			if err != nil {
				return err
			}
			return statements.RenderBalanceSheet(cmd.OutOrStdout(), bs)
		}),
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "report date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&zero, "zero", false, "include account types without balance")

	return cmd
}

func newIncomeStatementCommand(g *globals) *cobra.Command {
	var from, to string
	var zero bool

	cmd := &cobra.Command{
		Use:   "income-statement",
		Short: "Print the income statement",
		Long:  "Print the income statement. The period defaults to the fiscal year to date.",
		Args:  cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			end, err := parseDate(to)
			if err != nil {
				return err
			}
			start, _ := rt.reports.FiscalYear(end)
			if from != "" {
				if start, err = parseDate(from); err != nil {
					return err
				}
			}
			is, err := rt.reports.IncomeStatement(cmd.Context(), rt.company, start, end, zero)
			if err != nil {
				return err
			}
			return statements.RenderIncomeStatement(cmd.OutOrStdout(), is)
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD, default fiscal year start)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&zero, "zero", false, "include account types without activity")

	return cmd
}
