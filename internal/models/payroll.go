package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is an HR record carrying the base salary used by the payroll batch.
type Employee struct {
	ID         string          `db:"id" json:"id"`
	TenantID   string          `db:"tenant_id" json:"tenant_id"`
	FullName   string          `db:"full_name" json:"full_name"`
	Email      string          `db:"email" json:"email"`
	BaseSalary decimal.Decimal `db:"base_salary" json:"base_salary"`
	Active     bool            `db:"active" json:"active"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// PayrollStatus tracks the payroll entry lifecycle.
type PayrollStatus string

const (
	PayrollStatusPending PayrollStatus = "PENDING"
	PayrollStatusPaid    PayrollStatus = "PAID"
)

// PayrollEntry is one period's salary obligation for an employee.
// One entry exists per (tenant, employee, period).
type PayrollEntry struct {
	ID         string          `db:"id" json:"id"`
	TenantID   string          `db:"tenant_id" json:"tenant_id"`
	EmployeeID string          `db:"employee_id" json:"employee_id"`
	Period     string          `db:"period" json:"period"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Status     PayrollStatus   `db:"status" json:"status"`
	CategoryID *string         `db:"category_id" json:"category_id,omitempty"`
	AccountID  *string         `db:"account_id" json:"account_id,omitempty"`
	PaidDate   *time.Time      `db:"paid_date" json:"paid_date,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// PayrollFilter narrows payroll listings.
type PayrollFilter struct {
	EmployeeID string
	Period     string
	Status     PayrollStatus
	Page       int
	PageSize   int
}
