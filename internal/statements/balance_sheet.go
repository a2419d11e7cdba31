package statements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/balance"
	"github.com/cleared-dev/ledger/internal/model"
)

// Tolerance is the largest difference at which a balance sheet still counts as balanced.
var Tolerance = decimal.New(1, -2)

// Synthetic equity lines.
const (
	CurrentYearResultCode = "RESULT"
	PriorResultCode       = "RESULT-PRIOR"
)

// SheetLine is an account type with the balance of its own accounts and every
// nested type. Amounts are oriented by the section: assets debit-positive,
// liabilities and equity credit-positive.
type SheetLine struct {
	TypeCode  string
	Name      string
	Level     int
	Amount    decimal.Decimal
	Synthetic bool
}

// Section groups the lines of one category.
type Section struct {
	Category model.Category
	Lines    []SheetLine
	Total    decimal.Decimal
}

// BalanceSheet is the financial position of a company at a date.
type BalanceSheet struct {
	AsOf              time.Time
	FiscalYearStart   time.Time
	Assets            Section
	Liabilities       Section
	Equity            Section
	CurrentYearResult decimal.Decimal
	PriorResult       decimal.Decimal
	TotalAssets       decimal.Decimal
	TotalLiabilities  decimal.Decimal
	TotalEquity       decimal.Decimal
	Difference        decimal.Decimal
	IsBalanced        bool
}

// BalanceSheet aggregates asset, liability and equity types as of the end of
// asOf. Revenue less expense of the fiscal year to date is added to equity as
// the current-year result; older unclosed revenue and expense is added as the
// prior result.
func (g *Generator) BalanceSheet(ctx context.Context, company uuid.UUID, asOf time.Time, includeZero bool) (*BalanceSheet, error) {
	asOf = model.Day(asOf)
	start, _ := g.FiscalYear(asOf)
	bs := &BalanceSheet{AsOf: asOf, FiscalYearStart: start}

	err := g.read(ctx, company, func(s *snapshot) error {
		all, err := s.calc.Movements(ctx, company, time.Time{}, asOf)
		if err != nil {
			return err
		}
		year, err := s.calc.Movements(ctx, company, start, asOf)
		if err != nil {
			return err
		}

		positions := make(map[uuid.UUID]decimal.Decimal) // by account type
		for _, a := range s.accounts {
			t, ok := all[a.ID]
			if !ok {
				continue
			}
			positions[a.AccountTypeID] = positions[a.AccountTypeID].Add(categoryNet(a.Category(), t))
		}

		bs.Assets = section(s, model.CategoryAsset, positions, includeZero)
		bs.Liabilities = section(s, model.CategoryLiability, positions, includeZero)
		bs.Equity = section(s, model.CategoryEquity, positions, includeZero)

		bs.CurrentYearResult = result(s.accounts, year)
		bs.PriorResult = result(s.accounts, all).Sub(bs.CurrentYearResult)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !bs.PriorResult.IsZero() {
		bs.Equity.Lines = append(bs.Equity.Lines, SheetLine{
			TypeCode: PriorResultCode, Name: "Prior years' unclosed result",
			Amount: bs.PriorResult, Synthetic: true,
		})
		bs.Equity.Total = bs.Equity.Total.Add(bs.PriorResult)
	}
	if !bs.CurrentYearResult.IsZero() {
		bs.Equity.Lines = append(bs.Equity.Lines, SheetLine{
			TypeCode: CurrentYearResultCode, Name: "Current year result",
			Amount: bs.CurrentYearResult, Synthetic: true,
		})
		bs.Equity.Total = bs.Equity.Total.Add(bs.CurrentYearResult)
	}

	bs.TotalAssets = bs.Assets.Total
	bs.TotalLiabilities = bs.Liabilities.Total
	bs.TotalEquity = bs.Equity.Total
	bs.Difference = bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity))
	bs.IsBalanced = bs.Difference.Abs().LessThan(Tolerance)
	return bs, nil
}

// section lists the types of a category depth-first, each with the inclusive
// amount of its subtree.
func section(s *snapshot, cat model.Category, positions map[uuid.UUID]decimal.Decimal, includeZero bool) Section {
	sec := Section{Category: cat, Total: decimal.Zero}

	var inclusive func(id uuid.UUID) decimal.Decimal
	inclusive = func(id uuid.UUID) decimal.Decimal {
		sum := positions[id]
		for _, c := range s.types.Children(id) {
			if c.Category == cat {
				sum = sum.Add(inclusive(c.ID))
			}
		}
		return sum
	}

	emit := func(t model.AccountType) {
		amount := inclusive(t.ID)
		if amount.IsZero() && !includeZero {
			return
		}
		sec.Lines = append(sec.Lines, SheetLine{
			TypeCode: t.Code, Name: t.Name, Level: s.types.Level(t.ID), Amount: amount,
		})
	}

	for _, root := range s.types.Roots() {
		if root.Category != cat {
			continue
		}
		sec.Total = sec.Total.Add(inclusive(root.ID))
		emit(root)
		for t := range s.types.Descendants(root.ID) {
			if t.Category == cat {
				emit(t)
			}
		}
	}
	return sec
}

// categoryNet orients raw totals by category rather than by the account's own
// normal balance, so contra accounts net against their section.
func categoryNet(cat model.Category, t balance.Totals) decimal.Decimal {
	if cat.DebitPositive() {
		return t.Debit.Sub(t.Credit)
	}
	return t.Credit.Sub(t.Debit)
}

// result is revenue less expense over the given totals.
func result(accounts []model.Account, totals map[uuid.UUID]balance.Totals) decimal.Decimal {
	r := decimal.Zero
	for _, a := range accounts {
		t, ok := totals[a.ID]
		if !ok {
			continue
		}
		switch a.Category() {
		case model.CategoryRevenue, model.CategoryExpense:
			// Revenue grows with credits and expense with debits, so credit
			// minus debit nets both into the result.
			r = r.Add(t.Credit.Sub(t.Debit))
		}
	}
	return r
}
