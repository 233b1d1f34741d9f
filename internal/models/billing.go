package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus tracks the tuition invoice lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// TuitionInvoice is one billing-period obligation for a student and course.
// The late fee stays zero until payment freezes the projected fee.
type TuitionInvoice struct {
	ID        string          `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenant_id"`
	StudentID string          `db:"student_id" json:"student_id"`
	CourseID  string          `db:"course_id" json:"course_id"`
	AccountID *string         `db:"account_id" json:"account_id,omitempty"`
	Period    string          `db:"period" json:"period"`
	DueDate   time.Time       `db:"due_date" json:"due_date"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	LateFee   decimal.Decimal `db:"late_fee" json:"late_fee"`
	Status    InvoiceStatus   `db:"status" json:"status"`
	PaidDate  *time.Time      `db:"paid_date" json:"paid_date,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// InvoiceView decorates an invoice with the fee projected at read time.
// For PAID invoices the projection equals the frozen stored fee.
type InvoiceView struct {
	TuitionInvoice
	ProjectedFee decimal.Decimal `json:"projected_fee"`
	TotalDue     decimal.Decimal `json:"total_due"`
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	StudentID string
	CourseID  string
	Period    string
	Status    InvoiceStatus
	Page      int
	PageSize  int
}

// BatchResult summarises an idempotent generation run.
type BatchResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
