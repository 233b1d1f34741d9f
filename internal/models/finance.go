package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a financial account receiving or paying out funds.
type Account struct {
	ID        string          `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	Name      string          `db:"name" json:"name"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Category labels ledger transactions (tuition, salaries, maintenance, ...).
type Category struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TransactionType distinguishes money flowing in from money flowing out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// LedgerTransaction is an immutable posting against an account.
type LedgerTransaction struct {
	ID          string          `db:"id" json:"id"`
	TenantID    string          `db:"tenant_id" json:"tenant_id"`
	AccountID   string          `db:"account_id" json:"account_id"`
	CategoryID  string          `db:"category_id" json:"category_id"`
	Type        TransactionType `db:"type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	ReferenceID string          `db:"reference_id" json:"reference_id"`
	PostedAt    time.Time       `db:"posted_at" json:"posted_at"`
}

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	AccountID string
	Type      TransactionType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
