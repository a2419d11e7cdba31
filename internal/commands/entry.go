package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
)

func newEntryCommand(g *globals) *cobra.Command {
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Journal entry operations",
	}
	entryCmd.AddCommand(newEntryAddCommand(g))
	entryCmd.AddCommand(newEntryPostCommand(g))
	entryCmd.AddCommand(newEntryReverseCommand(g))
	entryCmd.AddCommand(newEntryCancelCommand(g))
	entryCmd.AddCommand(newEntryDeleteCommand(g))
	entryCmd.AddCommand(newEntryShowCommand(g))
	entryCmd.AddCommand(newEntryListCommand(g))
	return entryCmd
}

type entryAddOptions struct {
	journal     string
	date        string
	description string
	reference   string
	number      string
	linesFile   string
	debits      []string
	credits     []string
	post        bool
}

func newEntryAddCommand(g *globals) *cobra.Command {
	var opts entryAddOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a draft journal entry",
		Long: `Create a draft journal entry from --debit/--credit flags or a lines CSV.

  ledger entry add --description "Cash sale" --debit 5161=1200 --credit 7111=1000 --credit 4455=200 --post`,
		Args: cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			ctx := cmd.Context()
			on, err := parseDate(opts.date)
			if err != nil {
				return err
			}
			lines, err := collectLines(opts)
			if err != nil {
				return err
			}
			j, err := rt.journal.JournalByCode(ctx, rt.company, opts.journal)
			if err != nil {
				return err
			}

			e, err := rt.journal.CreateEntry(ctx, rt.company, journal.CreateEntryParams{
				JournalID:   j.ID,
				Date:        on,
				Description: opts.description,
				Reference:   opts.reference,
				EntryNumber: opts.number,
				Lines:       lines,
				CreatedBy:   &rt.actor,
			})
			if err != nil {
				return err
			}
			if opts.post {
				posted, err := rt.journal.Post(ctx, rt.company, e.ID, rt.actor)
				if err != nil {
					return fmt.Errorf("entry %s saved as draft: %w", e.EntryNumber, err)
				}
				e = posted
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", e.EntryNumber, e.State, e.TotalDebit.StringFixed(2))
			return nil
		}),
	}

	cmd.Flags().StringVar(&opts.journal, "journal", "GEN", "journal code")
	cmd.Flags().StringVar(&opts.date, "date", "", "entry date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.description, "description", "", "description")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "external reference")
	cmd.Flags().StringVar(&opts.number, "number", "", "entry number, for journals without automatic numbering")
	cmd.Flags().StringVar(&opts.linesFile, "lines", "", "read lines from a CSV file (- for stdin)")
	cmd.Flags().StringArrayVar(&opts.debits, "debit", nil, "debit line as CODE=AMOUNT (repeatable)")
	cmd.Flags().StringArrayVar(&opts.credits, "credit", nil, "credit line as CODE=AMOUNT (repeatable)")
	cmd.Flags().BoolVar(&opts.post, "post", false, "post the entry right away")

	return cmd
}

func collectLines(opts entryAddOptions) ([]journal.LineInput, error) {
	var lines []journal.LineInput
	if opts.linesFile != "" {
		var r io.Reader = os.Stdin
		if opts.linesFile != "-" {
			f, err := os.Open(opts.linesFile)
			if err != nil {
				return nil, fmt.Errorf("opening lines: %w", err)
			}
			defer f.Close()
			r = f
		}
		read, err := journal.ReadLines(r)
		if err != nil {
			return nil, err
		}
		lines = append(lines, read...)
	}
	for _, d := range opts.debits {
		code, amount, err := parseLineFlag(d)
		if err != nil {
			return nil, err
		}
		lines = append(lines, journal.LineInput{AccountCode: code, Debit: amount, Description: opts.description})
	}
	for _, c := range opts.credits {
		code, amount, err := parseLineFlag(c)
		if err != nil {
			return nil, err
		}
		lines = append(lines, journal.LineInput{AccountCode: code, Credit: amount, Description: opts.description})
	}
	return lines, nil
}

// parseLineFlag splits "CODE=AMOUNT".
func parseLineFlag(s string) (string, decimal.Decimal, error) {
	code, value, ok := strings.Cut(s, "=")
	if !ok || code == "" {
		return "", decimal.Zero, fmt.Errorf("invalid line %q: expected CODE=AMOUNT", s)
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("invalid amount in %q: %w", s, err)
	}
	return code, amount, nil
}

func newEntryPostCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "post <number>",
		Short: "Post a draft entry",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			e, err := rt.journal.GetByNumber(cmd.Context(), rt.company, args[0])
			if err != nil {
				return err
			}
			e, err = rt.journal.Post(cmd.Context(), rt.company, e.ID, rt.actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s (%s)\n", e.EntryNumber, e.TotalDebit.StringFixed(2))
			return nil
		}),
	}
}

func newEntryReverseCommand(g *globals) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reverse <number>",
		Short: "Reverse a posted entry",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			e, err := rt.journal.GetByNumber(cmd.Context(), rt.company, args[0])
			if err != nil {
				return err
			}
			rev, err := rt.journal.Reverse(cmd.Context(), rt.company, e.ID, rt.actor, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reversed %s with %s\n", e.EntryNumber, rev.EntryNumber)
			return nil
		}),
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the reversal description")

	return cmd
}

func newEntryCancelCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <number>",
		Short: "Cancel a draft entry",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			e, err := rt.journal.GetByNumber(cmd.Context(), rt.company, args[0])
			if err != nil {
				return err
			}
			if _, err := rt.journal.Cancel(cmd.Context(), rt.company, e.ID, rt.actor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", e.EntryNumber)
			return nil
		}),
	}
}

func newEntryDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete a draft entry",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			e, err := rt.journal.GetByNumber(cmd.Context(), rt.company, args[0])
			if err != nil {
				return err
			}
			if err := rt.journal.DeleteDraft(cmd.Context(), rt.company, e.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", e.EntryNumber)
			return nil
		}),
	}
}

func newEntryShowCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show an entry and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, args []string) error {
			e, err := rt.journal.GetByNumber(cmd.Context(), rt.company, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %s  %s  %s\n", e.EntryNumber, e.Date.Format("2006-01-02"), e.State, e.EntryType)
			if e.Description != "" {
				fmt.Fprintln(w, e.Description)
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\tAccount\tDebit\tCredit\t")
			for _, l := range e.Lines {
				name := ""
				if l.Account != nil {
					name = l.Account.Code + " " + l.Account.Name
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", l.Sequence, name, cell(l.DebitAmount), cell(l.CreditAmount))
			}
			fmt.Fprintf(tw, "\tTotal\t%s\t%s\t\n", e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
			return tw.Flush()
		}),
	}
}

func newEntryListCommand(g *globals) *cobra.Command {
	var state, from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries",
		Args:  cobra.NoArgs,
		RunE: withRuntime(g, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			f := journal.ListFilter{State: model.EntryState(strings.ToUpper(state))}
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

			entries, err := rt.journal.List(cmd.Context(), rt.company, f)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Number\tDate\tState\tAmount\tDescription\t")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
					e.EntryNumber, e.Date.Format("2006-01-02"), e.State, e.TotalDebit.StringFixed(2), e.Description)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVar(&state, "state", "", "only entries in this state")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")

	return cmd
}

func cell(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
