package balance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	db      *gorm.DB
	company uuid.UUID
	journal uuid.UUID
	cash    *model.Account
	sales   *model.Account
	seq     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{db: db, company: testutil.NewCompany(), journal: uuid.New()}
	f.cash = f.account(t, "5161", model.CategoryAsset, model.NormalDebit, "1000.00")
	f.sales = f.account(t, "7111", model.CategoryRevenue, model.NormalCredit, "0")
	return f
}

func (f *fixture) account(t *testing.T, code string, cat model.Category, nb model.NormalBalance, opening string) *model.Account {
	t.Helper()
	at := &model.AccountType{
		ID: uuid.New(), CompanyID: f.company, Code: code[:2], Name: code[:2],
		Category: cat, NormalBalance: nb, AllowPosting: true, IsActive: true,
	}
	require.NoError(t, f.db.Create(at).Error)
	a := &model.Account{
		ID: uuid.New(), CompanyID: f.company, Code: code, Name: code,
		AccountTypeID: at.ID, Currency: "MAD",
		OpeningBalance: dec(opening), CurrentBalance: dec(opening),
		AllowPosting: true, IsActive: true,
	}
	require.NoError(t, f.db.Create(a).Error)
	a.AccountType = at
	return a
}

// entry records a cash sale of amount on day in the given state.
func (f *fixture) entry(t *testing.T, day time.Time, state model.EntryState, amount string) {
	t.Helper()
	f.seq++
	id := uuid.New()
	e := &model.JournalEntry{
		ID: id, CompanyID: f.company, JournalID: f.journal,
		EntryNumber: "JE-" + day.Format("2006") + "-" + string(rune('A'+f.seq)),
		Date:        day, EntryType: model.EntryManual, State: state,
		TotalDebit: dec(amount), TotalCredit: dec(amount),
		Lines: []model.JournalEntryLine{
			{ID: uuid.New(), JournalEntryID: id, Sequence: 1, AccountID: f.cash.ID, DebitAmount: dec(amount), CreditAmount: decimal.Zero},
			{ID: uuid.New(), JournalEntryID: id, Sequence: 2, AccountID: f.sales.ID, DebitAmount: decimal.Zero, CreditAmount: dec(amount)},
		},
	}
	require.NoError(t, f.db.Create(e).Error)
}

func TestBalanceAsOf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	calc := New(f.db)

	f.entry(t, date(2025, 1, 10), model.StatePosted, "500.00")
	f.entry(t, date(2025, 2, 10), model.StatePosted, "250.50")
	f.entry(t, date(2025, 1, 20), model.StateDraft, "999.00")
	f.entry(t, date(2025, 1, 21), model.StateCancelled, "999.00")

	tests := []struct {
		name string
		acct *model.Account
		on   time.Time
		want string
	}{
		{"cash before any entry", f.cash, date(2025, 1, 9), "1000.00"},
		{"cash on posting day", f.cash, date(2025, 1, 10), "1500.00"},
		{"cash later", f.cash, date(2025, 12, 31), "1750.50"},
		{"sales credit-normal", f.sales, date(2025, 12, 31), "750.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.BalanceAsOf(ctx, tt.acct, tt.on)
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestBalanceAsOf_LoadsMissingType(t *testing.T) {
	f := newFixture(t)
	f.entry(t, date(2025, 1, 10), model.StatePosted, "40.00")

	bare := *f.sales
	bare.AccountType = nil
	got, err := New(f.db).BalanceAsOf(context.Background(), &bare, date(2025, 1, 31))
	require.NoError(t, err)
	assert.True(t, dec("40.00").Equal(got), "got %s", got)
}

func TestReversedEntriesStillCount(t *testing.T) {
	f := newFixture(t)
	f.entry(t, date(2025, 3, 1), model.StateReversed, "100.00")

	got, err := New(f.db).BalanceAsOf(context.Background(), f.cash, date(2025, 3, 31))
	require.NoError(t, err)
	assert.True(t, dec("1100.00").Equal(got), "got %s", got)
}

func TestPeriodMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, date(2024, 12, 31), model.StatePosted, "10.00")
	f.entry(t, date(2025, 1, 1), model.StatePosted, "20.00")
	f.entry(t, date(2025, 1, 31), model.StatePosted, "30.00")
	f.entry(t, date(2025, 2, 1), model.StatePosted, "40.00")

	m, err := New(f.db).PeriodMovement(ctx, f.sales, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(m.Debit))
	assert.True(t, dec("50.00").Equal(m.Credit), "credit %s", m.Credit)
	assert.True(t, dec("50.00").Equal(m.Balance), "balance %s", m.Balance)

	m, err = New(f.db).PeriodMovement(ctx, f.cash, date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	assert.True(t, dec("50.00").Equal(m.Debit))
	assert.True(t, dec("50.00").Equal(m.Balance))
}

func TestMovements(t *testing.T) {
	f := newFixture(t)
	f.entry(t, date(2025, 1, 5), model.StatePosted, "12.34")
	f.entry(t, date(2025, 1, 6), model.StatePosted, "0.66")
	f.entry(t, date(2025, 1, 7), model.StateDraft, "100.00")

	moves, err := New(f.db).Movements(context.Background(), f.company, time.Time{}, date(2025, 1, 31))
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.True(t, dec("13.00").Equal(moves[f.cash.ID].Debit))
	assert.True(t, dec("13.00").Equal(moves[f.sales.ID].Credit))
	assert.True(t, dec("13.00").Equal(moves[f.sales.ID].Net(model.NormalCredit)))
	assert.True(t, dec("-13.00").Equal(moves[f.sales.ID].Net(model.NormalDebit)))

	other, err := New(f.db).Movements(context.Background(), testutil.NewCompany(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDiscrepancies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, date(2025, 1, 5), model.StatePosted, "100.00")

	// The fixture writes lines without touching current_balance.
	found, err := New(f.db).Discrepancies(ctx, f.company)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "5161", found[0].Account.Code)
	assert.True(t, dec("1100.00").Equal(found[0].Computed))

	require.NoError(t, f.db.Model(&model.Account{}).Where("id = ?", f.cash.ID).Update("current_balance", dec("1100.00")).Error)
	require.NoError(t, f.db.Model(&model.Account{}).Where("id = ?", f.sales.ID).Update("current_balance", dec("100.00")).Error)

	found, err = New(f.db).Discrepancies(ctx, f.company)
	require.NoError(t, err)
	assert.Empty(t, found)
}
