// Package accounttypes manages the account classification tree of a company.
package accounttypes

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleared-dev/ledger/internal/hierarchy"
	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/store"
	"github.com/cleared-dev/ledger/internal/validation"
)

// Registry provides persistence-backed access to account types.
type Registry struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRegistry creates a Registry.
func NewRegistry(db *gorm.DB, log *zap.Logger) *Registry {
	return &Registry{db: db, log: logger.OrNop(log)}
}

// WithTx returns a Registry bound to tx.
func (r *Registry) WithTx(tx *gorm.DB) *Registry {
	return &Registry{db: tx, log: r.log}
}

// CreateParams holds the fields of a new account type.
type CreateParams struct {
	Code                  string              `json:"code" validate:"required,number,max=20"`
	Name                  string              `json:"name" validate:"required,max=200"`
	LocalName             string              `json:"local_name" validate:"max=200"`
	Category              model.Category      `json:"category" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	NormalBalance         model.NormalBalance `json:"normal_balance" validate:"required,oneof=DEBIT CREDIT"`
	ParentCode            string              `json:"parent_code" validate:"omitempty,number"`
	AllowPosting          *bool               `json:"allow_posting"` // nil means true
	RequireReconciliation bool                `json:"require_reconciliation"`
}

// Create adds an account type. Its level is one below its parent, 0 at the root.
func (r *Registry) Create(ctx context.Context, company uuid.UUID, p CreateParams) (*model.AccountType, error) {
	if err := validation.Struct(p); err != nil {
		return nil, err
	}

	t := &model.AccountType{
		ID:                    uuid.New(),
		CompanyID:             company,
		Code:                  p.Code,
		Name:                  p.Name,
		LocalName:             p.LocalName,
		Category:              p.Category,
		NormalBalance:         p.NormalBalance,
		AllowPosting:          p.AllowPosting == nil || *p.AllowPosting,
		RequireReconciliation: p.RequireReconciliation,
		IsActive:              true,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.ParentCode != "" {
			parent, err := byCode(tx, company, p.ParentCode)
			if err != nil {
				return err
			}
			if parent.Category != t.Category {
				return model.Invalid("parent_code", "parent %s is %s, not %s", parent.Code, parent.Category, t.Category)
			}
			t.ParentID = &parent.ID
			t.Level = parent.Level + 1
		}
		if err := tx.Create(t).Error; err != nil {
			if store.IsDuplicate(err) {
				return model.Invalid("code", "account type %s already exists", p.Code)
			}
			return fmt.Errorf("creating account type %s: %w", p.Code, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug("account type created",
		zap.String("company", company.String()),
		zap.String("code", t.Code),
		zap.Int("level", t.Level))
	return t, nil
}

// Get returns an account type by ID.
func (r *Registry) Get(ctx context.Context, company, id uuid.UUID) (*model.AccountType, error) {
	var t model.AccountType
	err := r.db.WithContext(ctx).Where("company_id = ? AND id = ?", company, id).First(&t).Error
	if store.IsNotFound(err) {
		return nil, model.NotFoundError{Kind: "account type", Key: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("loading account type %s: %w", id, err)
	}
	return &t, nil
}

// ByCode returns an account type by code.
func (r *Registry) ByCode(ctx context.Context, company uuid.UUID, code string) (*model.AccountType, error) {
	return byCode(r.db.WithContext(ctx), company, code)
}

func byCode(db *gorm.DB, company uuid.UUID, code string) (*model.AccountType, error) {
	var t model.AccountType
	err := db.Where("company_id = ? AND code = ?", company, code).First(&t).Error
	if store.IsNotFound(err) {
		return nil, model.NotFoundError{Kind: "account type", Key: code}
	}
	if err != nil {
		return nil, fmt.Errorf("loading account type %s: %w", code, err)
	}
	return &t, nil
}

// List returns the company's account types ordered by code. An empty category
// returns all of them.
func (r *Registry) List(ctx context.Context, company uuid.UUID, category model.Category) ([]model.AccountType, error) {
	q := r.db.WithContext(ctx).Where("company_id = ?", company)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var types []model.AccountType
	if err := q.Order("code").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("listing account types: %w", err)
	}
	return types, nil
}

// Tree loads the company's account types into a hierarchy.
func (r *Registry) Tree(ctx context.Context, company uuid.UUID) (*hierarchy.Tree[model.AccountType], error) {
	types, err := r.List(ctx, company, "")
	if err != nil {
		return nil, err
	}
	return hierarchy.New(types), nil
}

// Descendants returns every type nested below t, depth first, ordered by code
// within each level.
func (r *Registry) Descendants(ctx context.Context, t *model.AccountType) (iter.Seq[model.AccountType], error) {
	tree, err := r.Tree(ctx, t.CompanyID)
	if err != nil {
		return nil, err
	}
	return tree.Descendants(t.ID), nil
}

// Reparent moves the type with the given code under newParentCode, or to the
// root when newParentCode is empty, and rewrites the level of the whole subtree.
func (r *Registry) Reparent(ctx context.Context, company uuid.UUID, code, newParentCode string) (*model.AccountType, error) {
	var moved *model.AccountType
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var types []model.AccountType
		if err := store.ForUpdate(tx).Where("company_id = ?", company).Find(&types).Error; err != nil {
			return fmt.Errorf("loading account types: %w", err)
		}
		tree := hierarchy.New(types)

		t, err := findCode(types, code)
		if err != nil {
			return err
		}

		var parentID *uuid.UUID
		base := 0
		if newParentCode != "" {
			parent, err := findCode(types, newParentCode)
			if err != nil {
				return err
			}
			if tree.WouldCycle(t.ID, parent.ID) {
				return model.Invalid("parent_code", "moving %s under %s would create a cycle", code, newParentCode)
			}
			if parent.Category != t.Category {
				return model.Invalid("parent_code", "parent %s is %s, not %s", parent.Code, parent.Category, t.Category)
			}
			parentID = &parent.ID
			base = parent.Level + 1
		}

		if err := tx.Model(&model.AccountType{}).Where("id = ?", t.ID).Update("parent_id", parentID).Error; err != nil {
			return fmt.Errorf("updating parent of %s: %w", code, err)
		}
		for id, level := range tree.SubtreeLevels(t.ID, base) {
			if err := tx.Model(&model.AccountType{}).Where("id = ?", id).Update("level", level).Error; err != nil {
				return fmt.Errorf("updating level: %w", err)
			}
		}

		t.ParentID = parentID
		t.Level = base
		moved = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Delete removes an account type. Types with child types or accounts are kept.
func (r *Registry) Delete(ctx context.Context, company uuid.UUID, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := byCode(tx, company, code)
		if err != nil {
			return err
		}

		var children, accounts int64
		if err := tx.Model(&model.AccountType{}).Where("parent_id = ?", t.ID).Count(&children).Error; err != nil {
			return fmt.Errorf("counting child types: %w", err)
		}
		if children > 0 {
			return model.Invalid("code", "account type %s has %d child types", code, children)
		}
		if err := tx.Model(&model.Account{}).Where("account_type_id = ?", t.ID).Count(&accounts).Error; err != nil {
			return fmt.Errorf("counting accounts: %w", err)
		}
		if accounts > 0 {
			return model.Invalid("code", "account type %s is used by %d accounts", code, accounts)
		}

		if err := tx.Delete(&model.AccountType{}, "id = ?", t.ID).Error; err != nil {
			return fmt.Errorf("deleting account type %s: %w", code, err)
		}
		return nil
	})
}

func findCode(types []model.AccountType, code string) (model.AccountType, error) {
	for _, t := range types {
		if t.Code == code {
			return t, nil
		}
	}
	return model.AccountType{}, model.NotFoundError{Kind: "account type", Key: code}
}
