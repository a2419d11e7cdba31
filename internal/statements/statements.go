// Package statements aggregates posted journal lines into the trial balance,
// the balance sheet and the income statement.
//
// Every report is computed from journal lines inside one read snapshot.
// Account opening balances are not added: opening positions are expected to be
// booked as an opening entry so that every report stays balanced.
package statements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/balance"
	"github.com/cleared-dev/ledger/internal/hierarchy"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// Generator builds financial statements for a company.
type Generator struct {
	db         *gorm.DB
	log        *zap.Logger
	startMonth time.Month
	startDay   int
}

// Option configures a Generator.
type Option func(*Generator)

// WithFiscalYearStart sets the first day of the fiscal year. The default is January 1.
func WithFiscalYearStart(month time.Month, day int) Option {
	return func(g *Generator) {
		g.startMonth, g.startDay = month, day
	}
}

// New creates a Generator.
func New(db *gorm.DB, log *zap.Logger, opts ...Option) *Generator {
	g := &Generator{db: db, log: logger.OrNop(log), startMonth: time.January, startDay: 1}
	for _, o := range opts {
		o(g)
	}
	return g
}

// FiscalYear returns the first and last day of the fiscal year containing date.
func (g *Generator) FiscalYear(date time.Time) (start, end time.Time) {
	return FiscalYear(date, g.startMonth, g.startDay)
}

// FiscalYear returns the bounds of the fiscal year that starts every year on
// month/day and contains date.
func FiscalYear(date time.Time, month time.Month, day int) (start, end time.Time) {
	date = model.Day(date)
	start = time.Date(date.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if date.Before(start) {
		start = start.AddDate(-1, 0, 0)
	}
	end = start.AddDate(1, 0, -1)
	return start, end
}

// snapshot is the state every report reads: the chart and line totals.
type snapshot struct {
	accounts []model.Account
	types    *hierarchy.Tree[model.AccountType]
	calc     *balance.Calculator
}

func (g *Generator) read(ctx context.Context, company uuid.UUID, fn func(s *snapshot) error) error {
	return store.ReadSnapshot(ctx, g.db, func(tx *gorm.DB) error {
		var accts []model.Account
		if err := tx.Preload("AccountType").Where("company_id = ?", company).Order("code").Find(&accts).Error; err != nil {
			return fmt.Errorf("loading accounts: %w", err)
		}
		var types []model.AccountType
		if err := tx.Where("company_id = ?", company).Order("code").Find(&types).Error; err != nil {
			return fmt.Errorf("loading account types: %w", err)
		}
		return fn(&snapshot{
			accounts: accts,
			types:    hierarchy.New(types),
			calc:     balance.New(tx),
		})
	})
}

// dayBefore returns the last day before d, the upper bound of "before d" queries.
func dayBefore(d time.Time) time.Time {
	return model.Day(d).AddDate(0, 0, -1)
}
