package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/accounttypes"
	"github.com/cleared-dev/ledger/internal/balance"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/sequence"
	"github.com/cleared-dev/ledger/internal/testutil"
)

var today = date(2025, 6, 30)

type fixture struct {
	db       *gorm.DB
	company  uuid.UUID
	svc      *Service
	accounts *accounts.Registry
	journals map[string]model.Journal
	actor    model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)
	company := testutil.NewCompany()

	types, err := accounttypes.DefaultTypes(accounttypes.TemplateCGNC)
	require.NoError(t, err)
	_, err = accounttypes.NewRegistry(db, nil).Seed(ctx, company, types)
	require.NoError(t, err)
	chart, err := accounts.DefaultChart(accounttypes.TemplateCGNC)
	require.NoError(t, err)
	accts := accounts.NewRegistry(db, nil)
	_, err = accts.Import(ctx, company, chart)
	require.NoError(t, err)

	svc := NewService(db, accts, sequence.NewStore(db), nil, WithClock(func() time.Time { return today }))
	js, err := svc.Seed(ctx, company, DefaultJournals())
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		company:  company,
		svc:      svc,
		accounts: accts,
		journals: make(map[string]model.Journal),
		actor:    model.Actor{ID: uuid.New(), Name: "tester"},
	}
	for _, j := range js {
		f.journals[j.Code] = j
	}
	return f
}

func (f *fixture) draft(t *testing.T, journal string, on time.Time, lines ...LineInput) *model.JournalEntry {
	t.Helper()
	e, err := f.svc.CreateEntry(context.Background(), f.company, CreateEntryParams{
		JournalID:   f.journals[journal].ID,
		Date:        on,
		Description: "test entry",
		Lines:       lines,
		CreatedBy:   &f.actor,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) posted(t *testing.T, on time.Time, lines ...LineInput) *model.JournalEntry {
	t.Helper()
	e := f.draft(t, "GEN", on, lines...)
	e, err := f.svc.Post(context.Background(), f.company, e.ID, f.actor)
	require.NoError(t, err)
	return e
}

func (f *fixture) balance(t *testing.T, code string) string {
	t.Helper()
	a, err := f.accounts.ByCode(context.Background(), f.company, code)
	require.NoError(t, err)
	return a.CurrentBalance.StringFixed(2)
}

func boolPtr(b bool) *bool { return &b }

func debit(code, amount string) LineInput {
	return LineInput{AccountCode: code, Debit: dec(amount)}
}

func credit(code, amount string) LineInput {
	return LineInput{AccountCode: code, Credit: dec(amount)}
}

func TestCreateEntry_Draft(t *testing.T) {
	f := newFixture(t)

	e := f.draft(t, "GEN", date(2025, 3, 14), debit("5161", "500.00"), credit("7111", "500.00"))
	assert.Equal(t, model.StateDraft, e.State)
	assert.Equal(t, model.EntryManual, e.EntryType)
	assert.True(t, e.TotalDebit.Equal(dec("500")))
	assert.True(t, e.IsBalanced())
	require.NotNil(t, e.CreatedBy)
	assert.Equal(t, f.actor.ID, *e.CreatedBy)

	prefix, _, seq, err := sequence.ParseNumber(e.EntryNumber)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefix, prefix)
	assert.Equal(t, int64(1), seq)

	got, err := f.svc.Get(context.Background(), f.company, e.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 1, got.Lines[0].Sequence)
	assert.Equal(t, "5161", got.Lines[0].Account.Code)
	assert.Equal(t, model.CategoryAsset, got.Lines[0].Account.Category())
	assert.Equal(t, "7111", got.Lines[1].Account.Code)

	// Drafts never touch balances.
	assert.Equal(t, "0.00", f.balance(t, "5161"))
}

func TestCreateEntry_Numbering(t *testing.T) {
	f := newFixture(t)

	first := f.draft(t, "GEN", today, debit("5161", "1"), credit("7111", "1"))
	second := f.draft(t, "GEN", today, debit("5161", "1"), credit("7111", "1"))
	sale := f.draft(t, "VT", today, debit("3421", "1"), credit("7111", "1"))

	_, _, s1, err := sequence.ParseNumber(first.EntryNumber)
	require.NoError(t, err)
	_, _, s2, err := sequence.ParseNumber(second.EntryNumber)
	require.NoError(t, err)
	assert.Equal(t, s1+1, s2)

	prefix, _, seq, err := sequence.ParseNumber(sale.EntryNumber)
	require.NoError(t, err)
	assert.Equal(t, "VT", prefix)
	assert.Equal(t, int64(1), seq)

	byNumber, err := f.svc.GetByNumber(context.Background(), f.company, second.EntryNumber)
	require.NoError(t, err)
	assert.Equal(t, second.ID, byNumber.ID)
}

func TestCreateEntry_NumberedByEntryYear(t *testing.T) {
	f := newFixture(t)

	late := f.draft(t, "GEN", date(2024, 12, 31), debit("5161", "1"), credit("7111", "1"))
	current := f.draft(t, "GEN", today, debit("5161", "1"), credit("7111", "1"))

	_, year, seq, err := sequence.ParseNumber(late.EntryNumber)
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, int64(1), seq)

	_, year, seq, err = sequence.ParseNumber(current.EntryNumber)
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, int64(1), seq)
}

func TestCreateEntry_ManualNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	j, err := f.svc.CreateJournal(ctx, f.company, CreateJournalParams{
		Code: "OD", Name: "Opérations diverses", JournalType: model.JournalMisc, ManualNumbers: true,
	})
	require.NoError(t, err)

	params := CreateEntryParams{
		JournalID: j.ID,
		Date:      today,
		Lines:     []LineInput{debit("6131", "300"), credit("5141", "300")},
	}
	_, err = f.svc.CreateEntry(ctx, f.company, params)
	assert.ErrorIs(t, err, model.ErrValidation)

	params.EntryNumber = "OD-0042"
	e, err := f.svc.CreateEntry(ctx, f.company, params)
	require.NoError(t, err)
	assert.Equal(t, "OD-0042", e.EntryNumber)

	_, err = f.svc.CreateEntry(ctx, f.company, params)
	assert.ErrorIs(t, err, model.ErrValidation, "duplicate number")
}

func TestCreateEntry_Errors(t *testing.T) {
	f := newFixture(t)
	gen := f.journals["GEN"].ID

	tests := []struct {
		name   string
		params CreateEntryParams
		want   error
	}{
		{
			name:   "unknown account",
			params: CreateEntryParams{JournalID: gen, Date: today, Lines: []LineInput{debit("9999", "1"), credit("7111", "1")}},
			want:   model.ErrNotFound,
		},
		{
			name:   "unknown journal",
			params: CreateEntryParams{JournalID: uuid.New(), Date: today, Lines: []LineInput{debit("5161", "1")}},
			want:   model.ErrNotFound,
		},
		{
			name:   "line with both sides",
			params: CreateEntryParams{JournalID: gen, Date: today, Lines: []LineInput{{AccountCode: "5161", Debit: dec("1"), Credit: dec("1")}}},
			want:   model.ErrValidation,
		},
		{
			name:   "sub-cent amount",
			params: CreateEntryParams{JournalID: gen, Date: today, Lines: []LineInput{debit("5161", "0.001")}},
			want:   model.ErrValidation,
		},
		{
			name:   "missing date",
			params: CreateEntryParams{JournalID: gen, Lines: []LineInput{debit("5161", "1")}},
			want:   model.ErrValidation,
		},
		{
			name:   "missing account code",
			params: CreateEntryParams{JournalID: gen, Date: today, Lines: []LineInput{{Debit: dec("1")}}},
			want:   model.ErrValidation,
		},
		{
			name:   "reversal type",
			params: CreateEntryParams{JournalID: gen, Date: today, EntryType: model.EntryReversal},
			want:   model.ErrValidation,
		},
		{
			name:   "unknown type",
			params: CreateEntryParams{JournalID: gen, Date: today, EntryType: "BOGUS"},
			want:   model.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateEntry(context.Background(), f.company, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	entries, err := f.svc.List(context.Background(), f.company, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "failed creates leave nothing behind")
}

func TestPost_CashSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Create(ctx, f.company, accounts.CreateParams{
		Code: "5611", Name: "Caisse", TypeCode: "51", OpeningBalance: dec("1000.00"),
	})
	require.NoError(t, err)

	e := f.draft(t, "GEN", today, debit("5611", "500.00"), credit("7111", "500.00"))
	posted, err := f.svc.Post(ctx, f.company, e.ID, f.actor)
	require.NoError(t, err)

	assert.Equal(t, model.StatePosted, posted.State)
	require.NotNil(t, posted.PostedAt)
	assert.Equal(t, today, *posted.PostedAt)
	require.NotNil(t, posted.PostedBy)
	assert.Equal(t, f.actor.ID, *posted.PostedBy)

	assert.Equal(t, "1500.00", f.balance(t, "5611"))
	assert.Equal(t, "500.00", f.balance(t, "7111"))

	got, err := f.svc.Get(ctx, f.company, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatePosted, got.State)
	assert.True(t, got.TotalCredit.Equal(dec("500")))
}

func TestPost_Unbalanced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.draft(t, "GEN", today, debit("5161", "100.00"))
	_, err := f.svc.Post(ctx, f.company, e.ID, f.actor)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "debits (100.00) != credits (0.00)")

	got, err := f.svc.Get(ctx, f.company, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDraft, got.State)
	assert.Nil(t, got.PostedAt)
	assert.Equal(t, "0.00", f.balance(t, "5161"))
}

func TestPost_NoLines(t *testing.T) {
	f := newFixture(t)

	e := f.draft(t, "GEN", today)
	_, err := f.svc.Post(context.Background(), f.company, e.ID, f.actor)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestPost_NonPostableAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.draft(t, "GEN", today, debit("51", "100.00"), credit("7111", "100.00"))
	_, err := f.svc.Post(ctx, f.company, e.ID, f.actor)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "account 51 does not allow posting")

	got, err := f.svc.Get(ctx, f.company, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDraft, got.State)
	assert.Equal(t, "0.00", f.balance(t, "7111"))
}

func TestPost_NonPostableType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := accounttypes.NewRegistry(f.db, nil).Create(ctx, f.company, accounttypes.CreateParams{
		Code: "59", Name: "Summary", Category: model.CategoryAsset, NormalBalance: model.NormalDebit,
		AllowPosting: boolPtr(false),
	})
	require.NoError(t, err)
	a, err := f.accounts.Create(ctx, f.company, accounts.CreateParams{Code: "5901", Name: "Suspense", TypeCode: "59"})
	require.NoError(t, err)
	assert.False(t, a.AllowPosting)

	// Rows written before the type was locked still carry allow_posting.
	require.NoError(t, f.db.Model(&model.Account{}).Where("id = ?", a.ID).Update("allow_posting", true).Error)

	e := f.draft(t, "GEN", today, debit("5901", "10.00"), credit("7111", "10.00"))
	_, err = f.svc.Post(ctx, f.company, e.ID, f.actor)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "type 59 does not allow posting")
	assert.Equal(t, "0.00", f.balance(t, "5901"))
}

func TestPost_FailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.draft(t, "GEN", today, debit("5161", "300.00"), credit("7111", "300.00"))

	boom := errors.New("boom")
	updates := 0
	err := f.db.Callback().Update().Before("gorm:update").Register("test:fail_second_balance", func(tx *gorm.DB) {
		if tx.Statement.Table != "accounts" {
			return
		}
		updates++
		if updates == 2 {
			_ = tx.AddError(boom)
		}
	})
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, f.company, e.ID, f.actor)
	require.NoError(t, f.db.Callback().Update().Remove("test:fail_second_balance"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, updates)

	got, err := f.svc.Get(ctx, f.company, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDraft, got.State)
	assert.Nil(t, got.PostedAt)
	assert.Equal(t, "0.00", f.balance(t, "5161"))
	assert.Equal(t, "0.00", f.balance(t, "7111"))

	// The entry posts cleanly once the failure is gone.
	_, err = f.svc.Post(ctx, f.company, e.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "300.00", f.balance(t, "5161"))
	assert.Equal(t, "300.00", f.balance(t, "7111"))
}

func TestPost_Twice(t *testing.T) {
	f := newFixture(t)

	e := f.posted(t, today, debit("5161", "10"), credit("7111", "10"))
	_, err := f.svc.Post(context.Background(), f.company, e.ID, f.actor)
	require.Error(t, err)

	var se model.StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, model.StatePosted, se.From)
	assert.Equal(t, model.StatePosted, se.To)
	assert.Equal(t, "10.00", f.balance(t, "5161"), "applied once")
}

func TestPost_UnknownEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Post(context.Background(), f.company, uuid.New(), f.actor)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPost_OtherCompany(t *testing.T) {
	f := newFixture(t)
	e := f.draft(t, "GEN", today, debit("5161", "10"), credit("7111", "10"))

	_, err := f.svc.Post(context.Background(), testutil.NewCompany(), e.ID, f.actor)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before := map[string]string{"6131": f.balance(t, "6131"), "5141": f.balance(t, "5141")}

	e := f.posted(t, date(2025, 5, 2), debit("6131", "200.00"), credit("5141", "200.00"))
	assert.Equal(t, "200.00", f.balance(t, "6131"))
	assert.Equal(t, "-200.00", f.balance(t, "5141"))

	rev, err := f.svc.Reverse(ctx, f.company, e.ID, f.actor, "correction")
	require.NoError(t, err)

	assert.Equal(t, model.StatePosted, rev.State)
	assert.Equal(t, model.EntryReversal, rev.EntryType)
	assert.Equal(t, "Reversal of "+e.EntryNumber+": correction", rev.Description)
	assert.Equal(t, e.JournalID, rev.JournalID)
	assert.Equal(t, today, rev.Date)
	require.NotNil(t, rev.ReversedEntryID)
	assert.Equal(t, e.ID, *rev.ReversedEntryID)
	assert.NotEqual(t, e.EntryNumber, rev.EntryNumber)

	got, err := f.svc.Get(ctx, f.company, rev.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "6131", got.Lines[0].Account.Code)
	assert.True(t, got.Lines[0].CreditAmount.Equal(dec("200")))
	assert.True(t, got.Lines[0].DebitAmount.IsZero())
	assert.Equal(t, "5141", got.Lines[1].Account.Code)
	assert.True(t, got.Lines[1].DebitAmount.Equal(dec("200")))

	orig, err := f.svc.Get(ctx, f.company, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateReversed, orig.State)

	assert.Equal(t, before["6131"], f.balance(t, "6131"))
	assert.Equal(t, before["5141"], f.balance(t, "5141"))
}

func TestReverse_FutureDatedEntry(t *testing.T) {
	f := newFixture(t)

	e := f.posted(t, date(2025, 12, 31), debit("5161", "10"), credit("7111", "10"))
	rev, err := f.svc.Reverse(context.Background(), f.company, e.ID, f.actor, "")
	require.NoError(t, err)
	assert.True(t, rev.Date.Equal(date(2025, 12, 31)))
	assert.Equal(t, "Reversal of "+e.EntryNumber, rev.Description)
}

func TestReverse_IllegalStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.draft(t, "GEN", today, debit("5161", "10"), credit("7111", "10"))
	_, err := f.svc.Reverse(ctx, f.company, d.ID, f.actor, "")
	assert.ErrorIs(t, err, model.ErrState)

	e := f.posted(t, today, debit("5161", "10"), credit("7111", "10"))
	rev, err := f.svc.Reverse(ctx, f.company, e.ID, f.actor, "")
	require.NoError(t, err)

	_, err = f.svc.Reverse(ctx, f.company, e.ID, f.actor, "")
	var se model.StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, model.StateReversed, se.From)

	// The reversal itself is an ordinary posted entry.
	_, err = f.svc.Reverse(ctx, f.company, rev.ID, f.actor, "undo")
	require.NoError(t, err)
	assert.Equal(t, "10.00", f.balance(t, "5161"))
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.draft(t, "GEN", today, debit("5161", "10"), credit("7111", "10"))
	c, err := f.svc.Cancel(ctx, f.company, d.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.StateCancelled, c.State)
	require.NotNil(t, c.CancelledAt)

	_, err = f.svc.Post(ctx, f.company, d.ID, f.actor)
	assert.ErrorIs(t, err, model.ErrState)
	_, err = f.svc.Cancel(ctx, f.company, d.ID, f.actor)
	assert.ErrorIs(t, err, model.ErrState)

	p := f.posted(t, today, debit("5161", "10"), credit("7111", "10"))
	_, err = f.svc.Cancel(ctx, f.company, p.ID, f.actor)
	assert.ErrorIs(t, err, model.ErrState)
}

func TestDeleteDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.draft(t, "GEN", today, debit("5161", "10"), credit("7111", "10"))
	require.NoError(t, f.svc.DeleteDraft(ctx, f.company, d.ID))

	_, err := f.svc.Get(ctx, f.company, d.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	var lines int64
	require.NoError(t, f.db.Model(&model.JournalEntryLine{}).Where("journal_entry_id = ?", d.ID).Count(&lines).Error)
	assert.Zero(t, lines)

	p := f.posted(t, today, debit("5161", "10"), credit("7111", "10"))
	err = f.svc.DeleteDraft(ctx, f.company, p.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrState)
	assert.Contains(t, err.Error(), "cannot modify a POSTED entry")
}

func TestReplaceLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.draft(t, "GEN", today, debit("5161", "100"))

	e, err := f.svc.ReplaceLines(ctx, f.company, d.ID, []LineInput{
		debit("5161", "120"), credit("7111", "100"), credit("4455", "20"),
	})
	require.NoError(t, err)
	assert.True(t, e.TotalDebit.Equal(dec("120")))
	assert.True(t, e.TotalCredit.Equal(dec("120")))

	posted, err := f.svc.Post(ctx, f.company, d.ID, f.actor)
	require.NoError(t, err)
	assert.Len(t, posted.Lines, 3)
	assert.Equal(t, "20.00", f.balance(t, "4455"))

	_, err = f.svc.ReplaceLines(ctx, f.company, d.ID, []LineInput{debit("5161", "1"), credit("7111", "1")})
	assert.ErrorIs(t, err, model.ErrState)

	_, err = f.svc.ReplaceLines(ctx, f.company, d.ID, []LineInput{{AccountCode: "5161"}})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.posted(t, date(2025, 1, 10), debit("5161", "1"), credit("7111", "1"))
	f.posted(t, date(2025, 2, 10), debit("5161", "2"), credit("7111", "2"))
	f.draft(t, "VT", date(2025, 2, 20), debit("3421", "3"), credit("7111", "3"))

	all, err := f.svc.List(ctx, f.company, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, date(2025, 1, 10), all[0].Date.UTC())
	assert.Len(t, all[0].Lines, 2)

	posted, err := f.svc.List(ctx, f.company, ListFilter{State: model.StatePosted})
	require.NoError(t, err)
	assert.Len(t, posted, 2)

	vt := f.journals["VT"].ID
	sales, err := f.svc.List(ctx, f.company, ListFilter{JournalID: &vt})
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	feb, err := f.svc.List(ctx, f.company, ListFilter{From: date(2025, 2, 1), To: date(2025, 2, 28)})
	require.NoError(t, err)
	assert.Len(t, feb, 2)
}

func TestPost_ConcurrentSameAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = f.draft(t, "GEN", today, debit("5161", "25.00"), credit("7111", "25.00")).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Post(ctx, f.company, id, f.actor)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, "200.00", f.balance(t, "5161"))
	assert.Equal(t, "200.00", f.balance(t, "7111"))

	diffs, err := balance.New(f.db).Discrepancies(ctx, f.company)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestPost_ConcurrentSameEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.draft(t, "GEN", today, debit("5161", "40"), credit("7111", "40"))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Post(ctx, f.company, e.ID, f.actor)
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, model.ErrState)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, "40.00", f.balance(t, "5161"))
}

func TestDefaultJournals(t *testing.T) {
	f := newFixture(t)

	js, err := f.svc.ListJournals(context.Background(), f.company)
	require.NoError(t, err)
	var codes []string
	for _, j := range js {
		codes = append(codes, j.Code)
		assert.True(t, j.AutoSequence)
	}
	assert.Equal(t, []string{"AC", "BQ", "CA", "GEN", "VT"}, codes)

	_, err = f.svc.CreateJournal(context.Background(), f.company, CreateJournalParams{
		Code: "GEN", Name: "dup", JournalType: model.JournalGeneral,
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.svc.JournalByCode(context.Background(), f.company, "ZZ")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
