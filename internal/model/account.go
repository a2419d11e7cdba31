package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category classifies account types in the chart of accounts.
type Category string

const (
	CategoryAsset     Category = "ASSET"
	CategoryLiability Category = "LIABILITY"
	CategoryEquity    Category = "EQUITY"
	CategoryRevenue   Category = "REVENUE"
	CategoryExpense   Category = "EXPENSE"
)

// IsValid reports whether c is one of the five known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryRevenue, CategoryExpense:
		return true
	}
	return false
}

// DebitPositive reports whether amounts in this category grow on the debit side.
func (c Category) DebitPositive() bool {
	return c == CategoryAsset || c == CategoryExpense
}

// NormalBalance is the side on which an account naturally increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// IsValid reports whether n is DEBIT or CREDIT.
func (n NormalBalance) IsValid() bool {
	return n == NormalDebit || n == NormalCredit
}

// Orient returns the net movement of debit and credit seen from the normal side:
// debit-normal accounts grow with debits, credit-normal accounts with credits.
func (n NormalBalance) Orient(debit, credit decimal.Decimal) decimal.Decimal {
	if n == NormalCredit {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}

// AccountType is a node of the account classification tree.
type AccountType struct {
	ID                    uuid.UUID     `gorm:"type:uuid;primaryKey"`
	CompanyID             uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_account_types_company_code,priority:1"`
	Code                  string        `gorm:"type:varchar(20);not null;uniqueIndex:idx_account_types_company_code,priority:2"`
	Name                  string        `gorm:"type:varchar(200);not null"`
	LocalName             string        `gorm:"type:varchar(200)"`
	Category              Category      `gorm:"type:varchar(16);not null;index"`
	NormalBalance         NormalBalance `gorm:"type:varchar(8);not null"`
	ParentID              *uuid.UUID    `gorm:"type:uuid;index"`
	Level                 int           `gorm:"not null"`
	AllowPosting          bool          `gorm:"not null"`
	RequireReconciliation bool          `gorm:"not null"`
	IsActive              bool          `gorm:"not null"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NodeID returns the type ID.
func (t AccountType) NodeID() uuid.UUID { return t.ID }

// ParentNodeID returns the parent type ID, nil for a root.
func (t AccountType) ParentNodeID() *uuid.UUID { return t.ParentID }

// SortKey orders siblings by code.
func (t AccountType) SortKey() string { return t.Code }

// Account is an entry of the chart of accounts.
//
// Category and NormalBalance are read through AccountType, which must be loaded.
type Account struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_company_code,priority:1"`
	Code           string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_accounts_company_code,priority:2"`
	Name           string          `gorm:"type:varchar(200);not null"`
	Description    string          `gorm:"type:text"`
	AccountTypeID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountType    *AccountType    `gorm:"foreignKey:AccountTypeID"`
	ParentID       *uuid.UUID      `gorm:"type:uuid;index"`
	Level          int             `gorm:"not null"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	AllowPosting   bool            `gorm:"not null"`
	IsActive       bool            `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NodeID returns the account ID.
func (a Account) NodeID() uuid.UUID { return a.ID }

// ParentNodeID returns the parent account ID, nil for a root.
func (a Account) ParentNodeID() *uuid.UUID { return a.ParentID }

// SortKey orders siblings by code.
func (a Account) SortKey() string { return a.Code }

// Category returns the category of the owning account type.
func (a Account) Category() Category {
	if a.AccountType == nil {
		return ""
	}
	return a.AccountType.Category
}

// NormalBalance returns the normal balance of the owning account type.
// Accounts whose type was not loaded are treated as debit-normal; callers
// that mutate balances load the type first.
func (a Account) NormalBalance() NormalBalance {
	if a.AccountType == nil {
		return NormalDebit
	}
	return a.AccountType.NormalBalance
}
