package statements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/model"
)

// TrialBalanceLine is one account of a trial balance. Opening and Closing are
// oriented by the account's normal balance; ClosingDebit and ClosingCredit
// place the closing balance in one of the two non-negative columns.
type TrialBalanceLine struct {
	AccountID     uuid.UUID
	Code          string
	Name          string
	Category      model.Category
	NormalBalance model.NormalBalance
	Opening       decimal.Decimal
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Closing       decimal.Decimal
	ClosingDebit  decimal.Decimal
	ClosingCredit decimal.Decimal
}

// TrialBalance lists every account's closing position as of a date.
type TrialBalance struct {
	AsOf            time.Time
	FiscalYearStart time.Time
	Lines           []TrialBalanceLine
	TotalDebits     decimal.Decimal
	TotalCredits    decimal.Decimal
	IsBalanced      bool
}

// TrialBalance computes the trial balance of a company at the end of asOf.
// The opening balance is the net of lines dated before the fiscal year start.
//
// Active posting accounts are listed; other accounts only when they carry
// lines, so both columns always cover every posted amount.
func (g *Generator) TrialBalance(ctx context.Context, company uuid.UUID, asOf time.Time, includeZero bool) (*TrialBalance, error) {
	asOf = model.Day(asOf)
	start, _ := g.FiscalYear(asOf)
	tb := &TrialBalance{
		AsOf:            asOf,
		FiscalYearStart: start,
		TotalDebits:     decimal.Zero,
		TotalCredits:    decimal.Zero,
	}

	err := g.read(ctx, company, func(s *snapshot) error {
		before, err := s.calc.Movements(ctx, company, time.Time{}, dayBefore(start))
		if err != nil {
			return err
		}
		period, err := s.calc.Movements(ctx, company, start, asOf)
		if err != nil {
			return err
		}

		for _, a := range s.accounts {
			prior, hasPrior := before[a.ID]
			moves, hasMoves := period[a.ID]
			if !(a.IsActive && a.AllowPosting) && !hasPrior && !hasMoves {
				continue
			}

			nb := a.NormalBalance()
			line := TrialBalanceLine{
				AccountID:     a.ID,
				Code:          a.Code,
				Name:          a.Name,
				Category:      a.Category(),
				NormalBalance: nb,
				Opening:       prior.Net(nb),
				Debit:         moves.Debit,
				Credit:        moves.Credit,
				ClosingDebit:  decimal.Zero,
				ClosingCredit: decimal.Zero,
			}
			line.Closing = line.Opening.Add(moves.Net(nb))

			if !includeZero && line.Opening.IsZero() && line.Debit.IsZero() &&
				line.Credit.IsZero() && line.Closing.IsZero() {
				continue
			}

			debitSide := (nb == model.NormalDebit) == line.Closing.IsPositive()
			switch {
			case line.Closing.IsZero():
			case debitSide:
				line.ClosingDebit = line.Closing.Abs()
			default:
				line.ClosingCredit = line.Closing.Abs()
			}

			tb.TotalDebits = tb.TotalDebits.Add(line.ClosingDebit)
			tb.TotalCredits = tb.TotalCredits.Add(line.ClosingCredit)
			tb.Lines = append(tb.Lines, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tb.IsBalanced = tb.TotalDebits.Equal(tb.TotalCredits)
	if !tb.IsBalanced {
		g.log.Warn("trial balance out of balance",
			zap.String("company", company.String()),
			zap.String("debits", tb.TotalDebits.StringFixed(2)),
			zap.String("credits", tb.TotalCredits.StringFixed(2)))
	}
	return tb, nil
}
