// Package accounts manages the chart of accounts of a company.
package accounts

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/balance"
	"github.com/cleared-dev/ledger/internal/hierarchy"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
	"github.com/cleared-dev/ledger/internal/validation"
)

// DefaultCurrency is used when an account is created without one.
const DefaultCurrency = "MAD"

// Registry provides persistence-backed access to accounts.
type Registry struct {
	db   *gorm.DB
	calc *balance.Calculator
	log  *zap.Logger
}

// NewRegistry creates a Registry.
func NewRegistry(db *gorm.DB, log *zap.Logger) *Registry {
	return &Registry{db: db, calc: balance.New(db), log: logger.OrNop(log)}
}

// WithTx returns a Registry bound to tx.
func (r *Registry) WithTx(tx *gorm.DB) *Registry {
	return &Registry{db: tx, calc: r.calc.WithTx(tx), log: r.log}
}

// CreateParams holds the fields of a new account.
type CreateParams struct {
	Code           string          `json:"code" validate:"required,number,max=20"`
	Name           string          `json:"name" validate:"required,max=200"`
	Description    string          `json:"description"`
	TypeCode       string          `json:"type_code" validate:"required,number"`
	ParentCode     string          `json:"parent_code" validate:"omitempty,number"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	AllowPosting   *bool           `json:"allow_posting"` // nil inherits from a non-postable parent or type, else true
}

// Create adds an account. Its current balance starts at the opening balance.
func (r *Registry) Create(ctx context.Context, company uuid.UUID, p CreateParams) (*model.Account, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	if !validation.HasCents(p.OpeningBalance) {
		return nil, model.Invalid("opening_balance", "%s has more than 2 decimal places", p.OpeningBalance)
	}

	currency := p.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	a := &model.Account{
		ID:             uuid.New(),
		CompanyID:      company,
		Code:           p.Code,
		Name:           p.Name,
		Description:    p.Description,
		Currency:       currency,
		OpeningBalance: p.OpeningBalance,
		CurrentBalance: p.OpeningBalance,
		AllowPosting:   true,
		IsActive:       true,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var at model.AccountType
		err := tx.Where("company_id = ? AND code = ?", company, p.TypeCode).First(&at).Error
		if store.IsNotFound(err) {
			return model.NotFoundError{Kind: "account type", Key: p.TypeCode}
		}
		if err != nil {
			return fmt.Errorf("loading account type %s: %w", p.TypeCode, err)
		}
		a.AccountTypeID = at.ID
		a.AccountType = &at

		if p.ParentCode != "" {
			parent, err := byCode(tx, company, p.ParentCode)
			if err != nil {
				return err
			}
			a.ParentID = &parent.ID
			a.Level = parent.Level + 1
			if !parent.AllowPosting {
				a.AllowPosting = false
			}
		}
		if p.AllowPosting != nil {
			a.AllowPosting = *p.AllowPosting
		}
		if !at.AllowPosting {
			if p.AllowPosting != nil && *p.AllowPosting {
				return model.Invalid("allow_posting", "account type %s does not allow posting", at.Code)
			}
			a.AllowPosting = false
		}

		if err := tx.Omit("AccountType").Create(a).Error; err != nil {
			if store.IsDuplicate(err) {
				return model.Invalid("code", "account %s already exists", p.Code)
			}
			return fmt.Errorf("creating account %s: %w", p.Code, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug("account created",
		zap.String("company", company.String()),
		zap.String("code", a.Code),
		zap.Bool("allow_posting", a.AllowPosting))
	return a, nil
}

// Get returns an account by ID with its type loaded.
func (r *Registry) Get(ctx context.Context, company, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).Preload("AccountType").
		Where("company_id = ? AND id = ?", company, id).First(&a).Error
	if store.IsNotFound(err) {
		return nil, model.NotFoundError{Kind: "account", Key: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("loading account %s: %w", id, err)
	}
	return &a, nil
}

// ByCode returns an account by code with its type loaded.
func (r *Registry) ByCode(ctx context.Context, company uuid.UUID, code string) (*model.Account, error) {
	return byCode(r.db.WithContext(ctx), company, code)
}

func byCode(db *gorm.DB, company uuid.UUID, code string) (*model.Account, error) {
	var a model.Account
	err := db.Preload("AccountType").Where("company_id = ? AND code = ?", company, code).First(&a).Error
	if store.IsNotFound(err) {
		return nil, model.NotFoundError{Kind: "account", Key: code}
	}
	if err != nil {
		return nil, fmt.Errorf("loading account %s: %w", code, err)
	}
	return &a, nil
}

// ByCodes resolves several codes at once. The result is keyed by code.
func (r *Registry) ByCodes(ctx context.Context, company uuid.UUID, codes []string) (map[string]*model.Account, error) {
	var accts []model.Account
	err := r.db.WithContext(ctx).Preload("AccountType").
		Where("company_id = ? AND code IN ?", company, codes).Find(&accts).Error
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	out := make(map[string]*model.Account, len(accts))
	for i := range accts {
		out[accts[i].Code] = &accts[i]
	}
	for _, c := range codes {
		if _, ok := out[c]; !ok {
			return nil, model.NotFoundError{Kind: "account", Key: c}
		}
	}
	return out, nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Category    model.Category
	PostingOnly bool
	ActiveOnly  bool
}

// List returns the company's accounts ordered by code.
func (r *Registry) List(ctx context.Context, company uuid.UUID, f ListFilter) ([]model.Account, error) {
	q := r.db.WithContext(ctx).Preload("AccountType").Where("company_id = ?", company)
	if f.PostingOnly {
		q = q.Where("allow_posting = ?", true)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var accts []model.Account
	if err := q.Order("code").Find(&accts).Error; err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	if f.Category != "" {
		accts = slices.DeleteFunc(accts, func(a model.Account) bool {
			return a.Category() != f.Category
		})
	}
	return accts, nil
}

// Tree loads the company's accounts into a hierarchy.
func (r *Registry) Tree(ctx context.Context, company uuid.UUID) (*hierarchy.Tree[model.Account], error) {
	accts, err := r.List(ctx, company, ListFilter{})
	if err != nil {
		return nil, err
	}
	return hierarchy.New(accts), nil
}

// BalanceAsOf returns the balance of acct at the end of date.
func (r *Registry) BalanceAsOf(ctx context.Context, acct *model.Account, date time.Time) (decimal.Decimal, error) {
	return r.calc.BalanceAsOf(ctx, acct, date)
}

// ApplyPosting moves acct's current balance by debit and credit, oriented by
// its normal balance. tx must be the posting transaction and acct must have
// been read under it.
func ApplyPosting(tx *gorm.DB, acct *model.Account, debit, credit decimal.Decimal) error {
	if acct.AccountType == nil {
		var at model.AccountType
		if err := tx.Where("id = ?", acct.AccountTypeID).First(&at).Error; err != nil {
			return fmt.Errorf("loading account type of %s: %w", acct.Code, err)
		}
		acct.AccountType = &at
	}
	next := acct.CurrentBalance.Add(acct.NormalBalance().Orient(debit, credit))
	err := tx.Model(&model.Account{}).Where("id = ?", acct.ID).
		Updates(map[string]any{"current_balance": next}).Error
	if err != nil {
		return fmt.Errorf("updating balance of %s: %w", acct.Code, err)
	}
	acct.CurrentBalance = next
	return nil
}

// Reparent moves the account with the given code under newParentCode, or to
// the root when newParentCode is empty, and rewrites the level of its subtree.
func (r *Registry) Reparent(ctx context.Context, company uuid.UUID, code, newParentCode string) (*model.Account, error) {
	var moved *model.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var accts []model.Account
		if err := store.ForUpdate(tx).Where("company_id = ?", company).Find(&accts).Error; err != nil {
			return fmt.Errorf("loading accounts: %w", err)
		}
		tree := hierarchy.New(accts)

		i := slices.IndexFunc(accts, func(a model.Account) bool { return a.Code == code })
		if i < 0 {
			return model.NotFoundError{Kind: "account", Key: code}
		}
		a := accts[i]

		var parentID *uuid.UUID
		base := 0
		if newParentCode != "" {
			j := slices.IndexFunc(accts, func(a model.Account) bool { return a.Code == newParentCode })
			if j < 0 {
				return model.NotFoundError{Kind: "account", Key: newParentCode}
			}
			parent := accts[j]
			if tree.WouldCycle(a.ID, parent.ID) {
				return model.Invalid("parent_code", "moving %s under %s would create a cycle", code, newParentCode)
			}
			parentID = &parent.ID
			base = parent.Level + 1
		}

		if err := tx.Model(&model.Account{}).Where("id = ?", a.ID).Update("parent_id", parentID).Error; err != nil {
			return fmt.Errorf("updating parent of %s: %w", code, err)
		}
		for id, level := range tree.SubtreeLevels(a.ID, base) {
			if err := tx.Model(&model.Account{}).Where("id = ?", id).Update("level", level).Error; err != nil {
				return fmt.Errorf("updating level: %w", err)
			}
		}

		a.ParentID = parentID
		a.Level = base
		moved = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Deactivate hides an account from posting-account listings. History is kept.
func (r *Registry) Deactivate(ctx context.Context, company uuid.UUID, code string) error {
	res := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("company_id = ? AND code = ?", company, code).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivating account %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFoundError{Kind: "account", Key: code}
	}
	return nil
}

// Delete removes an account that has no child accounts and no journal lines.
func (r *Registry) Delete(ctx context.Context, company uuid.UUID, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := byCode(tx, company, code)
		if err != nil {
			return err
		}

		var children, lines int64
		if err := tx.Model(&model.Account{}).Where("parent_id = ?", a.ID).Count(&children).Error; err != nil {
			return fmt.Errorf("counting child accounts: %w", err)
		}
		if children > 0 {
			return model.Invalid("code", "account %s has %d child accounts", code, children)
		}
		if err := tx.Model(&model.JournalEntryLine{}).Where("account_id = ?", a.ID).Count(&lines).Error; err != nil {
			return fmt.Errorf("counting journal lines: %w", err)
		}
		if lines > 0 {
			return model.Invalid("code", "account %s is referenced by %d journal lines", code, lines)
		}

		if err := tx.Delete(&model.Account{}, "id = ?", a.ID).Error; err != nil {
			return fmt.Errorf("deleting account %s: %w", code, err)
		}
		return nil
	})
}
