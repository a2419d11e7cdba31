package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalType groups journals by the business flow they record.
type JournalType string

const (
	JournalGeneral  JournalType = "GENERAL"
	JournalSales    JournalType = "SALES"
	JournalPurchase JournalType = "PURCHASE"
	JournalCash     JournalType = "CASH"
	JournalBank     JournalType = "BANK"
	JournalMisc     JournalType = "MISC"
)

// Journal is a book in which entries are recorded.
type Journal struct {
	ID                     uuid.UUID   `gorm:"type:uuid;primaryKey"`
	CompanyID              uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_journals_company_code,priority:1"`
	Code                   string      `gorm:"type:varchar(10);not null;uniqueIndex:idx_journals_company_code,priority:2"`
	Name                   string      `gorm:"type:varchar(200);not null"`
	JournalType            JournalType `gorm:"type:varchar(16);not null"`
	AutoSequence           bool        `gorm:"not null"`
	SequencePrefix         string      `gorm:"type:varchar(10)"`
	DefaultDebitAccountID  *uuid.UUID  `gorm:"type:uuid"`
	DefaultCreditAccountID *uuid.UUID  `gorm:"type:uuid"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// EntryType records why an entry exists.
type EntryType string

const (
	EntryManual    EntryType = "MANUAL"
	EntryAutomatic EntryType = "AUTOMATIC"
	EntryAdjusting EntryType = "ADJUSTING"
	EntryClosing   EntryType = "CLOSING"
	EntryReversal  EntryType = "REVERSAL"
)

// IsValid reports whether t is a known entry type.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryManual, EntryAutomatic, EntryAdjusting, EntryClosing, EntryReversal:
		return true
	}
	return false
}

// EntryState is the lifecycle state of a journal entry.
type EntryState string

const (
	StateDraft     EntryState = "DRAFT"
	StatePosted    EntryState = "POSTED"
	StateReversed  EntryState = "REVERSED"
	StateCancelled EntryState = "CANCELLED"
)

// CanTransitionTo reports whether moving from s to next is a legal transition.
// DRAFT -> POSTED, DRAFT -> CANCELLED and POSTED -> REVERSED are the only ones.
func (s EntryState) CanTransitionTo(next EntryState) bool {
	switch s {
	case StateDraft:
		return next == StatePosted || next == StateCancelled
	case StatePosted:
		return next == StateReversed
	}
	return false
}

// AffectsBalances reports whether lines of an entry in this state count toward balances.
// A reversed entry keeps its effect; the reversal entry carries the negation.
func (s EntryState) AffectsBalances() bool {
	return s == StatePosted || s == StateReversed
}

// BalanceStates lists the states whose lines count toward balances.
func BalanceStates() []EntryState {
	return []EntryState{StatePosted, StateReversed}
}

// JournalEntry is a double-entry transaction made of two or more lines.
type JournalEntry struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey"`
	CompanyID          uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_entries_company_number,priority:1;index:idx_entries_company_state,priority:1;index:idx_entries_company_date,priority:1"`
	EntryNumber        string             `gorm:"type:varchar(40);not null;uniqueIndex:idx_entries_company_number,priority:2"`
	JournalID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	Date               time.Time          `gorm:"not null;index:idx_entries_company_date,priority:2"`
	EntryType          EntryType          `gorm:"type:varchar(16);not null"`
	State              EntryState         `gorm:"type:varchar(16);not null;index:idx_entries_company_state,priority:2"`
	TotalDebit         decimal.Decimal    `gorm:"type:decimal(20,2);not null"`
	TotalCredit        decimal.Decimal    `gorm:"type:decimal(20,2);not null"`
	Reference          string             `gorm:"type:varchar(100)"`
	Description        string             `gorm:"type:text"`
	SourceDocumentType string             `gorm:"type:varchar(50)"`
	SourceDocumentID   string             `gorm:"type:varchar(64)"`
	ReversedEntryID    *uuid.UUID         `gorm:"type:uuid;index"`
	CreatedBy          *uuid.UUID         `gorm:"type:uuid"`
	PostedAt           *time.Time
	PostedBy           *uuid.UUID         `gorm:"type:uuid"`
	CancelledAt        *time.Time
	Lines              []JournalEntryLine `gorm:"foreignKey:JournalEntryID"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsBalanced reports whether the stored totals are exactly equal.
func (e JournalEntry) IsBalanced() bool {
	return e.TotalDebit.Equal(e.TotalCredit)
}

// LineTotals sums debit and credit amounts of the loaded lines.
func (e JournalEntry) LineTotals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.DebitAmount)
		credit = credit.Add(l.CreditAmount)
	}
	return debit, credit
}

// JournalEntryLine is one side of a journal entry, owned by it.
type JournalEntryLine struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	JournalEntryID uuid.UUID       `gorm:"type:uuid;not null;index:idx_lines_entry_sequence,priority:1"`
	Sequence       int             `gorm:"not null;index:idx_lines_entry_sequence,priority:2"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Account        *Account        `gorm:"foreignKey:AccountID"`
	Description    string          `gorm:"type:text"`
	DebitAmount    decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreditAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Reference      string          `gorm:"type:varchar(100)"`
	Reconciled     bool            `gorm:"not null"`
	ReconciledAt   *time.Time
	ReconciledBy   *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDebit reports whether the line carries a debit amount.
func (l JournalEntryLine) IsDebit() bool {
	return l.DebitAmount.IsPositive()
}

// Amount returns whichever side is set.
func (l JournalEntryLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.DebitAmount
	}
	return l.CreditAmount
}

// SequenceCounter backs the default entry-number sequence.
type SequenceCounter struct {
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocType   string    `gorm:"type:varchar(40);primaryKey"`
	Prefix    string    `gorm:"type:varchar(10);primaryKey"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	Value     int64     `gorm:"not null"`
}

// Actor is an opaque reference to the user performing an operation.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
