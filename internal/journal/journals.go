package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
	"github.com/cleared-dev/ledger/internal/validation"
)

// CreateJournalParams holds the fields of a new journal.
type CreateJournalParams struct {
	Code           string            `json:"code" validate:"required,alphanum,max=10"`
	Name           string            `json:"name" validate:"required,max=200"`
	JournalType    model.JournalType `json:"journal_type" validate:"required,oneof=GENERAL SALES PURCHASE CASH BANK MISC"`
	ManualNumbers  bool              `json:"manual_numbers"` // entries carry caller-supplied numbers
	SequencePrefix string            `json:"sequence_prefix" validate:"max=10"`
}

// CreateJournal adds a journal to the company.
func (s *Service) CreateJournal(ctx context.Context, company uuid.UUID, p CreateJournalParams) (*model.Journal, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	j := &model.Journal{
		ID:             uuid.New(),
		CompanyID:      company,
		Code:           p.Code,
		Name:           p.Name,
		JournalType:    p.JournalType,
		AutoSequence:   !p.ManualNumbers,
		SequencePrefix: p.SequencePrefix,
	}
	if err := s.db.WithContext(ctx).Create(j).Error; err != nil {
		if store.IsDuplicate(err) {
			return nil, model.Invalid("code", "journal %s already exists", p.Code)
		}
		return nil, fmt.Errorf("creating journal %s: %w", p.Code, err)
	}
	s.log.Debug("journal created", zap.String("company", company.String()), zap.String("code", j.Code))
	return j, nil
}

// JournalByCode returns a journal by code.
func (s *Service) JournalByCode(ctx context.Context, company uuid.UUID, code string) (*model.Journal, error) {
	var j model.Journal
	err := s.db.WithContext(ctx).Where("company_id = ? AND code = ?", company, code).First(&j).Error
	if store.IsNotFound(err) {
		return nil, model.NotFoundError{Kind: "journal", Key: code}
	}
	if err != nil {
		return nil, fmt.Errorf("loading journal %s: %w", code, err)
	}
	return &j, nil
}

// ListJournals returns the company's journals ordered by code.
func (s *Service) ListJournals(ctx context.Context, company uuid.UUID) ([]model.Journal, error) {
	var js []model.Journal
	if err := s.db.WithContext(ctx).Where("company_id = ?", company).Order("code").Find(&js).Error; err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	return js, nil
}

func journalByID(tx *gorm.DB, company, id uuid.UUID) (*model.Journal, error) {
	var j model.Journal
	err := tx.Where("company_id = ? AND id = ?", company, id).First(&j).Error
	if store.IsNotFound(err) {
		return nil, model.NotFoundError{Kind: "journal", Key: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("loading journal %s: %w", id, err)
	}
	return &j, nil
}

// DefaultJournals returns the journal set a new company starts with.
// The general journal numbers its entries with the service's default prefix.
func DefaultJournals() []CreateJournalParams {
	return []CreateJournalParams{
		{Code: "GEN", Name: "General journal", JournalType: model.JournalGeneral},
		{Code: "VT", Name: "Sales journal", JournalType: model.JournalSales, SequencePrefix: "VT"},
		{Code: "AC", Name: "Purchase journal", JournalType: model.JournalPurchase, SequencePrefix: "AC"},
		{Code: "CA", Name: "Cash journal", JournalType: model.JournalCash, SequencePrefix: "CA"},
		{Code: "BQ", Name: "Bank journal", JournalType: model.JournalBank, SequencePrefix: "BQ"},
	}
}

// Seed creates the given journals in one transaction.
func (s *Service) Seed(ctx context.Context, company uuid.UUID, params []CreateJournalParams) ([]model.Journal, error) {
	var out []model.Journal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := &Service{db: tx, log: s.log}
		for _, p := range params {
			j, err := inner.CreateJournal(ctx, company, p)
			if err != nil {
				return err
			}
			out = append(out, *j)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
