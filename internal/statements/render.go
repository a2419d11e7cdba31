package statements

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// blank renders zero as an empty cell.
func blank(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

// RenderTrialBalance writes tb as a text table.
func RenderTrialBalance(w io.Writer, tb *TrialBalance) error {
	fmt.Fprintf(w, "Trial balance as of %s (fiscal year from %s)\n\n",
		tb.AsOf.Format(time.DateOnly), tb.FiscalYearStart.Format(time.DateOnly))

	tw := newTable(w)
	fmt.Fprintln(tw, "Code\tAccount\tOpening\tDebit\tCredit\tClosing debit\tClosing credit\t")
	for _, l := range tb.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			l.Code, l.Name, amount(l.Opening), blank(l.Debit), blank(l.Credit),
			blank(l.ClosingDebit), blank(l.ClosingCredit))
	}
	fmt.Fprintf(tw, "\tTotal\t\t\t\t%s\t%s\t\n", amount(tb.TotalDebits), amount(tb.TotalCredits))
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing trial balance: %w", err)
	}

	if !tb.IsBalanced {
		fmt.Fprintf(w, "\nOUT OF BALANCE by %s\n", amount(tb.TotalDebits.Sub(tb.TotalCredits)))
	}
	return nil
}

// RenderBalanceSheet writes bs as a text table, nested types indented.
func RenderBalanceSheet(w io.Writer, bs *BalanceSheet) error {
	fmt.Fprintf(w, "Balance sheet as of %s\n\n", bs.AsOf.Format(time.DateOnly))

	tw := newTable(w)
	for _, sec := range []Section{bs.Assets, bs.Liabilities, bs.Equity} {
		fmt.Fprintf(tw, "%s\t\t\n", sec.Category)
		for _, l := range sec.Lines {
			code := l.TypeCode
			if l.Synthetic {
				code = ""
			}
			fmt.Fprintf(tw, "%s%s %s\t%s\t\n", strings.Repeat("  ", l.Level+1), code, l.Name, amount(l.Amount))
		}
		fmt.Fprintf(tw, "Total %s\t%s\t\n", strings.ToLower(string(sec.Category)), amount(sec.Total))
		fmt.Fprintln(tw, "\t\t")
	}
	fmt.Fprintf(tw, "Liabilities and equity\t%s\t\n", amount(bs.TotalLiabilities.Add(bs.TotalEquity)))
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing balance sheet: %w", err)
	}

	if !bs.IsBalanced {
		fmt.Fprintf(w, "\nOUT OF BALANCE by %s\n", amount(bs.Difference))
	}
	return nil
}

// RenderIncomeStatement writes is as a text table.
func RenderIncomeStatement(w io.Writer, is *IncomeStatement) error {
	fmt.Fprintf(w, "Income statement %s to %s\n\n", is.From.Format(time.DateOnly), is.To.Format(time.DateOnly))

	tw := newTable(w)
	bucket := func(title string, b BucketTotals) {
		fmt.Fprintf(tw, "%s\t\t\n", title)
		for _, l := range b.Revenues {
			fmt.Fprintf(tw, "  %s %s\t%s\t\n", l.TypeCode, l.Name, amount(l.Amount))
		}
		for _, l := range b.Expenses {
			fmt.Fprintf(tw, "  %s %s\t%s\t\n", l.TypeCode, l.Name, amount(l.Amount.Neg()))
		}
	}

	bucket("Operating", is.Operating)
	fmt.Fprintf(tw, "Operating result\t%s\t\n", amount(is.OperatingResult))
	bucket("Financial", is.Financial)
	fmt.Fprintf(tw, "Financial result\t%s\t\n", amount(is.FinancialResult))
	fmt.Fprintf(tw, "Current result\t%s\t\n", amount(is.CurrentResult))
	bucket("Non-current", is.NonCurrent)
	fmt.Fprintf(tw, "Non-current result\t%s\t\n", amount(is.NonCurrentResult))
	fmt.Fprintf(tw, "Result before tax\t%s\t\n", amount(is.ResultBeforeTax))
	fmt.Fprintf(tw, "Income tax\t%s\t\n", amount(is.TaxExpense))
	fmt.Fprintf(tw, "Net income\t%s\t\n", amount(is.NetIncome))
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing income statement: %w", err)
	}
	return nil
}
