// Package balance computes account balances from posted journal lines.
// It only reads; current_balance is maintained by the posting engine.
package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/model"
)

// Totals is the raw debit and credit sum of a set of lines.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Add accumulates one line.
func (t Totals) Add(debit, credit decimal.Decimal) Totals {
	return Totals{Debit: t.Debit.Add(debit), Credit: t.Credit.Add(credit)}
}

// Net returns the totals oriented by normal balance.
func (t Totals) Net(nb model.NormalBalance) decimal.Decimal {
	return nb.Orient(t.Debit, t.Credit)
}

// Movement is the activity of an account over a period.
// Balance is oriented by the account's normal balance.
type Movement struct {
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
}

// Calculator reads posted lines.
type Calculator struct {
	db *gorm.DB
}

// New creates a Calculator.
func New(db *gorm.DB) *Calculator {
	return &Calculator{db: db}
}

// WithTx returns a Calculator reading through tx.
func (c *Calculator) WithTx(tx *gorm.DB) *Calculator {
	return &Calculator{db: tx}
}

// BalanceAsOf returns the opening balance plus the oriented net of every posted
// line dated on or before date.
func (c *Calculator) BalanceAsOf(ctx context.Context, acct *model.Account, date time.Time) (decimal.Decimal, error) {
	nb, err := c.normalBalance(ctx, acct)
	if err != nil {
		return decimal.Zero, err
	}
	totals, err := c.accountTotals(ctx, acct.ID, time.Time{}, date)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.OpeningBalance.Add(totals.Net(nb)), nil
}

// PeriodMovement returns the posted activity of acct between from and to, both inclusive.
func (c *Calculator) PeriodMovement(ctx context.Context, acct *model.Account, from, to time.Time) (Movement, error) {
	nb, err := c.normalBalance(ctx, acct)
	if err != nil {
		return Movement{}, err
	}
	totals, err := c.accountTotals(ctx, acct.ID, from, to)
	if err != nil {
		return Movement{}, err
	}
	return Movement{Debit: totals.Debit, Credit: totals.Credit, Balance: totals.Net(nb)}, nil
}

// Movements returns posted totals per account for a company between from and
// to, both inclusive. A zero from means since the beginning.
func (c *Calculator) Movements(ctx context.Context, company uuid.UUID, from, to time.Time) (map[uuid.UUID]Totals, error) {
	rows, err := c.lines(ctx, from, to, "e.company_id = ?", company)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]Totals)
	for _, r := range rows {
		out[r.AccountID] = out[r.AccountID].Add(r.DebitAmount, r.CreditAmount)
	}
	return out, nil
}

// Discrepancy is an account whose stored current balance differs from the
// one derived from its posted lines.
type Discrepancy struct {
	Account  model.Account
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

// Discrepancies compares every account's current_balance against its opening
// balance plus all posted lines.
func (c *Calculator) Discrepancies(ctx context.Context, company uuid.UUID) ([]Discrepancy, error) {
	var accts []model.Account
	err := c.db.WithContext(ctx).Preload("AccountType").
		Where("company_id = ?", company).Order("code").Find(&accts).Error
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	moves, err := c.Movements(ctx, company, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	var out []Discrepancy
	for _, a := range accts {
		computed := a.OpeningBalance.Add(moves[a.ID].Net(a.NormalBalance()))
		if !computed.Equal(a.CurrentBalance) {
			out = append(out, Discrepancy{Account: a, Stored: a.CurrentBalance, Computed: computed})
		}
	}
	return out, nil
}

func (c *Calculator) accountTotals(ctx context.Context, account uuid.UUID, from, to time.Time) (Totals, error) {
	rows, err := c.lines(ctx, from, to, "l.account_id = ?", account)
	if err != nil {
		return Totals{}, err
	}
	t := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, r := range rows {
		t = t.Add(r.DebitAmount, r.CreditAmount)
	}
	return t, nil
}

type lineAmount struct {
	AccountID    uuid.UUID
	DebitAmount  decimal.Decimal
	CreditAmount decimal.Decimal
}

// lines loads the amounts of lines of balance-affecting entries. Sums are done
// in Go so no database ever rounds them through a float. A zero to means no
// upper bound.
func (c *Calculator) lines(ctx context.Context, from, to time.Time, cond string, arg any) ([]lineAmount, error) {
	q := c.db.WithContext(ctx).
		Table("journal_entry_lines AS l").
		Select("l.account_id, l.debit_amount, l.credit_amount").
		Joins("JOIN journal_entries AS e ON e.id = l.journal_entry_id").
		Where("e.state IN ?", model.BalanceStates()).
		Where(cond, arg)
	if !from.IsZero() {
		q = q.Where("e.date >= ?", model.Day(from))
	}
	if !to.IsZero() {
		q = q.Where("e.date <= ?", model.Day(to))
	}

	var rows []lineAmount
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading posted lines: %w", err)
	}
	return rows, nil
}

func (c *Calculator) normalBalance(ctx context.Context, acct *model.Account) (model.NormalBalance, error) {
	if acct.AccountType != nil {
		return acct.AccountType.NormalBalance, nil
	}
	var at model.AccountType
	if err := c.db.WithContext(ctx).First(&at, "id = ?", acct.AccountTypeID).Error; err != nil {
		return "", fmt.Errorf("loading account type of %s: %w", acct.Code, err)
	}
	acct.AccountType = &at
	return at.NormalBalance, nil
}
