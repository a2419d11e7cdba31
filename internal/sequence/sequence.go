// Package sequence hands out gap-free document numbers per company, document
// type, prefix and year.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
)

// DocJournalEntry is the document type used for journal entry numbers.
const DocJournalEntry = "journal_entry"

// Service returns the next formatted document number.
//
// tx is the caller's open transaction; the number is only consumed if it commits.
// The year of on selects the counter; a zero on means the current year.
type Service interface {
	Next(ctx context.Context, tx *gorm.DB, company uuid.UUID, docType, prefix string, on time.Time) (string, error)
}

// Store is the default Service, backed by the sequence_counters table.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a Store. db is used when Next is called without a transaction.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Next increments the counter row for (company, docType, prefix, year of on)
// and formats the result.
func (s *Store) Next(ctx context.Context, tx *gorm.DB, company uuid.UUID, docType, prefix string, on time.Time) (string, error) {
	year := on.Year()
	if on.IsZero() {
		year = s.now().Year()
	}
	if tx == nil {
		var number string
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			number, err = s.next(tx, company, docType, prefix, year)
			return err
		})
		return number, err
	}
	return s.next(tx.WithContext(ctx), company, docType, prefix, year)
}

func (s *Store) next(tx *gorm.DB, company uuid.UUID, docType, prefix string, year int) (string, error) {
	counter := model.SequenceCounter{CompanyID: company, DocType: docType, Prefix: prefix, Year: year}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error; err != nil {
		return "", fmt.Errorf("initializing %s sequence: %w", docType, err)
	}

	key := "company_id = ? AND doc_type = ? AND prefix = ? AND year = ?"
	if err := store.ForUpdate(tx).Where(key, company, docType, prefix, year).First(&counter).Error; err != nil {
		return "", fmt.Errorf("locking %s sequence: %w", docType, err)
	}

	next := counter.Value + 1
	err := tx.Model(&model.SequenceCounter{}).
		Where(key, company, docType, prefix, year).
		Update("value", next).Error
	if err != nil {
		return "", fmt.Errorf("advancing %s sequence: %w", docType, err)
	}
	return FormatNumber(prefix, year, next), nil
}
