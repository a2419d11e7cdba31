package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/model"
)

func newAccountCommand(g *globals) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Chart of accounts operations",
	}
	accountCmd.AddCommand(newAccountListCommand(g))
	accountCmd.AddCommand(newAccountAddCommand(g))
	accountCmd.AddCommand(newAccountBalanceCommand(g))
	accountCmd.AddCommand(newAccountImportCommand(g))
	accountCmd.AddCommand(newAccountCheckCommand(g))
	accountCmd.AddCommand(newAccountMoveCommand(g))
	accountCmd.AddCommand(newAccountDeactivateCommand(g))
	accountCmd.AddCommand(newAccountDeleteCommand(g))
	return accountCmd
}

func newAccountListCommand(g *globals) *cobra.Command {
	var category string
	var postingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			accts, err := rt.accounts.List(cmd.Context(), rt.company, accounts.ListFilter{
				Category:    model.Category(strings.ToUpper(category)),
				PostingOnly: postingOnly,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Code\tName\tCategory\tPosting\tBalance\t")
			for _, a := range accts {
				posting := "yes"
				if !a.AllowPosting {
					posting = "no"
				}
				fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t\n",
					strings.Repeat("  ", a.Level), a.Code, a.Name, a.Category(), posting, a.CurrentBalance.StringFixed(2))
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&category, "category", "", "only list accounts of this category")
	cmd.Flags().BoolVar(&postingOnly, "posting", false, "only list accounts that allow posting")

	return cmd
}

func newAccountAddCommand(g *globals) *cobra.Command {
	var p accounts.CreateParams
	var opening string
	var noPosting bool

	cmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(2),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			p.Code, p.Name = args[0], args[1]
			if p.Currency == "" {
				p.Currency = rt.cfg.Company.Currency
			}
			if opening != "" {
				amount, err := decimal.NewFromString(opening)
				if err != nil {
					return fmt.Errorf("parsing opening balance %q: %w", opening, err)
				}
				p.OpeningBalance = amount
			}
			if noPosting {
				no := false
				p.AllowPosting = &no
			}

			a, err := rt.accounts.Create(cmd.Context(), rt.company, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added account %s %s (%s)\n", a.Code, a.Name, a.Category())
			return nil
		}),
	}

	cmd.Flags().StringVar(&p.TypeCode, "type", "", "account type code (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&p.ParentCode, "parent", "", "parent account code")
	cmd.Flags().StringVar(&p.Currency, "currency", "", "currency (default from config)")
	cmd.Flags().StringVar(&p.Description, "description", "", "description")
	cmd.Flags().StringVar(&opening, "opening", "", "opening balance")
	cmd.Flags().BoolVar(&noPosting, "no-posting", false, "summary account that does not accept postings")

	return cmd
}

func newAccountBalanceCommand(g *globals) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance <code>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			on, err := parseDate(asOf)
			if err != nil {
				return err
			}
			a, err := rt.accounts.ByCode(cmd.Context(), rt.company, args[0])
			if err != nil {
				return err
			}
			bal, err := rt.accounts.BalanceAsOf(cmd.Context(), a, on)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s as of %s: %s %s\n",
				a.Code, a.Name, on.Format("2006-01-02"), bal.StringFixed(2), a.Currency)
			return nil
		}),
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "date (YYYY-MM-DD, default today)")

	return cmd
}

func newAccountImportCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import accounts from a chart CSV",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening chart: %w", err)
			}
			defer f.Close()

			params, err := accounts.ReadAccounts(f)
			if err != nil {
				return err
			}
			accts, err := rt.accounts.Import(cmd.Context(), rt.company, params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", len(accts))
			return nil
		}),
	}
}

func newAccountCheckCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify stored balances against posted lines",
		Args:  cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			diffs, err := rt.balances.Discrepancies(cmd.Context(), rt.company)
			if err != nil {
				return err
			}
			if len(diffs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All account balances match posted lines")
				return nil
			}
			for _, d := range diffs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: stored %s, computed %s\n",
					d.Account.Code, d.Account.Name, d.Stored.StringFixed(2), d.Computed.StringFixed(2))
			}
			return fmt.Errorf("%d accounts out of balance", len(diffs))
		}),
	}
}

func newAccountMoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "move <code> [parent]",
		Short: "Move an account under another parent, or to the root",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			parent := ""
			if len(args) > 1 {
				parent = args[1]
			}
			a, err := rt.accounts.Reparent(cmd.Context(), rt.company, args[0], parent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to level %d\n", a.Code, a.Level)
			return nil
		}),
	}
}

func newAccountDeactivateCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <code>",
		Short: "Deactivate an account, keeping its history",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			if err := rt.accounts.Deactivate(cmd.Context(), rt.company, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %s\n", args[0])
			return nil
		}),
	}
}

func newAccountDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete an account without children or journal lines",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			if err := rt.accounts.Delete(cmd.Context(), rt.company, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		}),
	}
}
