// Package journal records journal entries and moves them through their
// lifecycle: DRAFT -> POSTED -> REVERSED, or DRAFT -> CANCELLED.
package journal

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/sequence"
	"github.com/cleared-dev/ledger/internal/store"
	"github.com/cleared-dev/ledger/internal/validation"
)

// DefaultPrefix numbers entries of journals without their own sequence prefix.
const DefaultPrefix = "JE"

// Service is the posting engine.
type Service struct {
	db       *gorm.DB
	accounts *accounts.Registry
	seq      sequence.Service
	log      *zap.Logger
	prefix   string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultPrefix sets the entry-number prefix for journals without one.
func WithDefaultPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a journal Service.
func NewService(db *gorm.DB, accts *accounts.Registry, seq sequence.Service, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:       db,
		accounts: accts,
		seq:      seq,
		log:      logger.OrNop(log),
		prefix:   DefaultPrefix,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LineInput is one line of an entry as supplied by the caller.
type LineInput struct {
	AccountCode string          `json:"account_code" validate:"required,number"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Reference   string          `json:"reference" validate:"max=100"`
}

// CreateEntryParams holds parameters for creating a DRAFT entry.
type CreateEntryParams struct {
	JournalID          uuid.UUID       `json:"journal_id" validate:"required"`
	Date               time.Time       `json:"date"`
	Description        string          `json:"description"`
	Lines              []LineInput     `json:"lines" validate:"dive"`
	EntryType          model.EntryType `json:"entry_type"` // MANUAL when empty
	EntryNumber        string          `json:"entry_number" validate:"max=40"` // only for journals without auto sequence
	Reference          string          `json:"reference" validate:"max=100"`
	SourceDocumentType string          `json:"source_document_type" validate:"max=50"`
	SourceDocumentID   string          `json:"source_document_id" validate:"max=64"`
	CreatedBy          *model.Actor    `json:"-"`
}

// CreateEntry validates the lines, resolves their accounts by code and stores
// a numbered DRAFT entry. Balance is not required until Post.
func (s *Service) CreateEntry(ctx context.Context, company uuid.UUID, p CreateEntryParams) (*model.JournalEntry, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	var verrs []model.ValidationError
	if p.Date.IsZero() {
		verrs = append(verrs, model.ValidationError{Field: "date", Message: "is required"})
	}
	entryType := p.EntryType
	if entryType == "" {
		entryType = model.EntryManual
	}
	switch {
	case !entryType.IsValid():
		verrs = append(verrs, model.ValidationError{Field: "entry_type", Message: fmt.Sprintf("unknown entry type %q", entryType)})
	case entryType == model.EntryReversal:
		verrs = append(verrs, model.ValidationError{Field: "entry_type", Message: "reversal entries are created by Reverse"})
	}
	verrs = append(verrs, ValidateLines(p.Lines)...)
	if err := model.JoinValidation(verrs); err != nil {
		return nil, err
	}

	var entry *model.JournalEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		j, err := journalByID(tx, company, p.JournalID)
		if err != nil {
			return err
		}
		accts, err := s.resolve(ctx, tx, company, p.Lines)
		if err != nil {
			return err
		}
		number, err := s.entryNumber(ctx, tx, company, j, p.EntryNumber, p.Date)
		if err != nil {
			return err
		}

		debit, credit := sumLines(p.Lines)
		e := &model.JournalEntry{
			ID:                 uuid.New(),
			CompanyID:          company,
			EntryNumber:        number,
			JournalID:          j.ID,
			Date:               model.Day(p.Date),
			EntryType:          entryType,
			State:              model.StateDraft,
			TotalDebit:         debit,
			TotalCredit:        credit,
			Reference:          p.Reference,
			Description:        p.Description,
			SourceDocumentType: p.SourceDocumentType,
			SourceDocumentID:   p.SourceDocumentID,
		}
		if p.CreatedBy != nil {
			e.CreatedBy = &p.CreatedBy.ID
		}
		e.Lines = buildLines(e.ID, p.Lines, accts)

		if err := insertEntry(tx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("entry created",
		zap.String("company", company.String()),
		zap.String("entry", entry.EntryNumber),
		zap.Int("lines", len(entry.Lines)))
	return entry, nil
}

// Post moves a DRAFT entry to POSTED and applies every line to its account's
// current balance, all in one transaction.
func (s *Service) Post(ctx context.Context, company, entryID uuid.UUID, actor model.Actor) (*model.JournalEntry, error) {
	var entry *model.JournalEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := lockEntry(tx, company, entryID)
		if err != nil {
			return err
		}
		if e.State != model.StateDraft {
			return model.StateError{Entry: e.EntryNumber, From: e.State, To: model.StatePosted}
		}
		if err := s.postInTx(tx, e, actor); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("entry posted",
		zap.String("company", company.String()),
		zap.String("entry", entry.EntryNumber),
		zap.String("total", entry.TotalDebit.StringFixed(2)),
		zap.String("actor", actor.ID.String()))
	return entry, nil
}

// postInTx validates e, locks the accounts its lines touch, flips it to POSTED
// and applies the balances. e must be DRAFT and read under tx.
func (s *Service) postInTx(tx *gorm.DB, e *model.JournalEntry, actor model.Actor) error {
	var ids []uuid.UUID
	for _, l := range e.Lines {
		if !slices.Contains(ids, l.AccountID) {
			ids = append(ids, l.AccountID)
		}
	}

	// Lock in id order so concurrent posts touching the same accounts cannot deadlock.
	var locked []model.Account
	if len(ids) > 0 {
		err := store.ForUpdate(tx).Preload("AccountType").
			Where("company_id = ? AND id IN ?", e.CompanyID, ids).
			Order("id").Find(&locked).Error
		if err != nil {
			return fmt.Errorf("locking accounts: %w", err)
		}
	}
	byID := make(map[uuid.UUID]*model.Account, len(locked))
	for i := range locked {
		byID[locked[i].ID] = &locked[i]
	}
	for _, id := range ids {
		if byID[id] == nil {
			return model.NotFoundError{Kind: "account", Key: id.String()}
		}
	}

	if err := model.JoinValidation(validatePostable(e, byID)); err != nil {
		return err
	}

	debit, credit := e.LineTotals()
	now := s.now().UTC()
	res := tx.Model(&model.JournalEntry{}).
		Where("id = ? AND state = ?", e.ID, model.StateDraft).
		Updates(map[string]any{
			"state":        model.StatePosted,
			"total_debit":  debit,
			"total_credit": credit,
			"posted_at":    now,
			"posted_by":    actor.ID,
		})
	if res.Error != nil {
		return fmt.Errorf("posting entry %s: %w", e.EntryNumber, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.StateError{Entry: e.EntryNumber, From: model.StatePosted, To: model.StatePosted}
	}

	per := make(map[uuid.UUID][2]decimal.Decimal, len(ids))
	for _, l := range e.Lines {
		sums := per[l.AccountID]
		per[l.AccountID] = [2]decimal.Decimal{sums[0].Add(l.DebitAmount), sums[1].Add(l.CreditAmount)}
	}
	for _, id := range ids {
		if err := accounts.ApplyPosting(tx, byID[id], per[id][0], per[id][1]); err != nil {
			return err
		}
	}

	for i := range e.Lines {
		e.Lines[i].Account = byID[e.Lines[i].AccountID]
	}
	e.State = model.StatePosted
	e.TotalDebit, e.TotalCredit = debit, credit
	e.PostedAt = &now
	e.PostedBy = &actor.ID
	return nil
}

// Reverse creates and posts an entry that negates a POSTED entry line by line,
// then marks the original REVERSED. It returns the reversal entry.
func (s *Service) Reverse(ctx context.Context, company, entryID uuid.UUID, actor model.Actor, reason string) (*model.JournalEntry, error) {
	var reversal *model.JournalEntry
	var original *model.JournalEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orig, err := lockEntry(tx, company, entryID)
		if err != nil {
			return err
		}
		if orig.State != model.StatePosted {
			return model.StateError{Entry: orig.EntryNumber, From: orig.State, To: model.StateReversed}
		}

		j, err := journalByID(tx, company, orig.JournalID)
		if err != nil {
			return err
		}
		date := model.Day(s.now())
		if orig.Date.After(date) {
			date = orig.Date
		}
		number, err := s.entryNumber(ctx, tx, company, j, "", date)
		if err != nil {
			return err
		}
		description := "Reversal of " + orig.EntryNumber
		if reason != "" {
			description += ": " + reason
		}

		rev := &model.JournalEntry{
			ID:              uuid.New(),
			CompanyID:       company,
			EntryNumber:     number,
			JournalID:       orig.JournalID,
			Date:            date,
			EntryType:       model.EntryReversal,
			State:           model.StateDraft,
			TotalDebit:      orig.TotalCredit,
			TotalCredit:     orig.TotalDebit,
			Reference:       orig.Reference,
			Description:     description,
			ReversedEntryID: &orig.ID,
			CreatedBy:       &actor.ID,
		}
		for _, l := range orig.Lines {
			rev.Lines = append(rev.Lines, model.JournalEntryLine{
				ID:             uuid.New(),
				JournalEntryID: rev.ID,
				Sequence:       l.Sequence,
				AccountID:      l.AccountID,
				Description:    l.Description,
				DebitAmount:    l.CreditAmount,
				CreditAmount:   l.DebitAmount,
				Reference:      l.Reference,
			})
		}
		if err := insertEntry(tx, rev); err != nil {
			return err
		}
		if err := s.postInTx(tx, rev, actor); err != nil {
			return err
		}

		res := tx.Model(&model.JournalEntry{}).
			Where("id = ? AND state = ?", orig.ID, model.StatePosted).
			Update("state", model.StateReversed)
		if res.Error != nil {
			return fmt.Errorf("marking %s reversed: %w", orig.EntryNumber, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.StateError{Entry: orig.EntryNumber, From: model.StateReversed, To: model.StateReversed}
		}
		orig.State = model.StateReversed
		reversal, original = rev, orig
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("entry reversed",
		zap.String("company", company.String()),
		zap.String("entry", original.EntryNumber),
		zap.String("reversal", reversal.EntryNumber),
		zap.String("reason", reason),
		zap.String("actor", actor.ID.String()))
	return reversal, nil
}

// Cancel moves a DRAFT entry to CANCELLED. Cancelled entries never affect balances.
func (s *Service) Cancel(ctx context.Context, company, entryID uuid.UUID, actor model.Actor) (*model.JournalEntry, error) {
	var entry *model.JournalEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := lockEntry(tx, company, entryID)
		if err != nil {
			return err
		}
		if !e.State.CanTransitionTo(model.StateCancelled) {
			return model.StateError{Entry: e.EntryNumber, From: e.State, To: model.StateCancelled}
		}
		now := s.now().UTC()
		res := tx.Model(&model.JournalEntry{}).
			Where("id = ? AND state = ?", e.ID, model.StateDraft).
			Updates(map[string]any{"state": model.StateCancelled, "cancelled_at": now})
		if res.Error != nil {
			return fmt.Errorf("cancelling entry %s: %w", e.EntryNumber, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.StateError{Entry: e.EntryNumber, From: e.State, To: model.StateCancelled}
		}
		e.State = model.StateCancelled
		e.CancelledAt = &now
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("entry cancelled",
		zap.String("company", company.String()),
		zap.String("entry", entry.EntryNumber),
		zap.String("actor", actor.ID.String()))
	return entry, nil
}

// DeleteDraft removes a DRAFT entry and its lines.
func (s *Service) DeleteDraft(ctx context.Context, company, entryID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := lockEntry(tx, company, entryID)
		if err != nil {
			return err
		}
		if e.State != model.StateDraft {
			return model.StateError{Entry: e.EntryNumber, From: e.State}
		}
		if err := tx.Where("journal_entry_id = ?", e.ID).Delete(&model.JournalEntryLine{}).Error; err != nil {
			return fmt.Errorf("deleting lines of %s: %w", e.EntryNumber, err)
		}
		if err := tx.Where("id = ? AND state = ?", e.ID, model.StateDraft).Delete(&model.JournalEntry{}).Error; err != nil {
			return fmt.Errorf("deleting entry %s: %w", e.EntryNumber, err)
		}
		return nil
	})
}

// ReplaceLines swaps the lines of a DRAFT entry and recomputes its totals.
func (s *Service) ReplaceLines(ctx context.Context, company, entryID uuid.UUID, lines []LineInput) (*model.JournalEntry, error) {
	for i := range lines {
		if err := validation.Struct(lines[i]); err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", i, err)
		}
	}
	if err := model.JoinValidation(ValidateLines(lines)); err != nil {
		return nil, err
	}

	var entry *model.JournalEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := lockEntry(tx, company, entryID)
		if err != nil {
			return err
		}
		if e.State != model.StateDraft {
			return model.StateError{Entry: e.EntryNumber, From: e.State}
		}
		accts, err := s.resolve(ctx, tx, company, lines)
		if err != nil {
			return err
		}

		if err := tx.Where("journal_entry_id = ?", e.ID).Delete(&model.JournalEntryLine{}).Error; err != nil {
			return fmt.Errorf("deleting lines of %s: %w", e.EntryNumber, err)
		}
		e.Lines = buildLines(e.ID, lines, accts)
		if len(e.Lines) > 0 {
			if err := tx.Omit("Account").Create(&e.Lines).Error; err != nil {
				return fmt.Errorf("creating lines of %s: %w", e.EntryNumber, err)
			}
		}

		e.TotalDebit, e.TotalCredit = sumLines(lines)
		err = tx.Model(&model.JournalEntry{}).Where("id = ?", e.ID).
			Updates(map[string]any{"total_debit": e.TotalDebit, "total_credit": e.TotalCredit}).Error
		if err != nil {
			return fmt.Errorf("updating totals of %s: %w", e.EntryNumber, err)
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns an entry with its lines in sequence order and their accounts loaded.
func (s *Service) Get(ctx context.Context, company, entryID uuid.UUID) (*model.JournalEntry, error) {
	return s.find(ctx, company, "id = ?", entryID, entryID.String())
}

// GetByNumber returns an entry by its entry number.
func (s *Service) GetByNumber(ctx context.Context, company uuid.UUID, number string) (*model.JournalEntry, error) {
	return s.find(ctx, company, "entry_number = ?", number, number)
}

func (s *Service) find(ctx context.Context, company uuid.UUID, cond string, arg any, key string) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := withLines(s.db.WithContext(ctx)).
		Where("company_id = ?", company).Where(cond, arg).First(&e).Error
	if store.IsNotFound(err) {
		return nil, model.NotFoundError{Kind: "journal entry", Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("loading entry %s: %w", key, err)
	}
	return &e, nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	State     model.EntryState
	JournalID *uuid.UUID
	From      time.Time
	To        time.Time
}

// List returns entries ordered by date then entry number, lines included.
func (s *Service) List(ctx context.Context, company uuid.UUID, f ListFilter) ([]model.JournalEntry, error) {
	q := withLines(s.db.WithContext(ctx)).Where("company_id = ?", company)
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	if f.JournalID != nil {
		q = q.Where("journal_id = ?", *f.JournalID)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", model.Day(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", model.Day(f.To))
	}

	var entries []model.JournalEntry
	if err := q.Order("date").Order("entry_number").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sequence") }).
		Preload("Lines.Account.AccountType")
}

// lockEntry loads an entry and its lines, row-locking the entry.
func lockEntry(tx *gorm.DB, company, entryID uuid.UUID) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := store.ForUpdate(tx).Where("company_id = ? AND id = ?", company, entryID).First(&e).Error
	if store.IsNotFound(err) {
		return nil, model.NotFoundError{Kind: "journal entry", Key: entryID.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("loading entry %s: %w", entryID, err)
	}
	if err := tx.Where("journal_entry_id = ?", e.ID).Order("sequence").Find(&e.Lines).Error; err != nil {
		return nil, fmt.Errorf("loading lines of %s: %w", e.EntryNumber, err)
	}
	return &e, nil
}

func insertEntry(tx *gorm.DB, e *model.JournalEntry) error {
	if err := tx.Omit("Lines").Create(e).Error; err != nil {
		if store.IsDuplicate(err) {
			return model.Invalid("entry_number", "entry %s already exists", e.EntryNumber)
		}
		return fmt.Errorf("creating entry %s: %w", e.EntryNumber, err)
	}
	if len(e.Lines) == 0 {
		return nil
	}
	if err := tx.Omit("Account").Create(&e.Lines).Error; err != nil {
		return fmt.Errorf("creating lines of %s: %w", e.EntryNumber, err)
	}
	return nil
}

// resolve maps each line's account code to an account of the company.
func (s *Service) resolve(ctx context.Context, tx *gorm.DB, company uuid.UUID, lines []LineInput) (map[string]*model.Account, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	codes := make([]string, 0, len(lines))
	for _, l := range lines {
		if !slices.Contains(codes, l.AccountCode) {
			codes = append(codes, l.AccountCode)
		}
	}
	return s.accounts.WithTx(tx).ByCodes(ctx, company, codes)
}

func (s *Service) entryNumber(ctx context.Context, tx *gorm.DB, company uuid.UUID, j *model.Journal, given string, on time.Time) (string, error) {
	if !j.AutoSequence {
		if given == "" {
			return "", model.Invalid("entry_number", "journal %s requires an entry number", j.Code)
		}
		return given, nil
	}
	prefix := j.SequencePrefix
	if prefix == "" {
		prefix = s.prefix
	}
	number, err := s.seq.Next(ctx, tx, company, sequence.DocJournalEntry, prefix, on)
	if err != nil {
		return "", fmt.Errorf("numbering entry: %w", err)
	}
	return number, nil
}

func buildLines(entryID uuid.UUID, in []LineInput, accts map[string]*model.Account) []model.JournalEntryLine {
	lines := make([]model.JournalEntryLine, len(in))
	for i, l := range in {
		a := accts[l.AccountCode]
		lines[i] = model.JournalEntryLine{
			ID:             uuid.New(),
			JournalEntryID: entryID,
			Sequence:       i + 1,
			AccountID:      a.ID,
			Account:        a,
			Description:    l.Description,
			DebitAmount:    l.Debit,
			CreditAmount:   l.Credit,
			Reference:      l.Reference,
		}
	}
	return lines
}
