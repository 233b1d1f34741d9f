package models

import "time"

// Book carries the availability counter mutated by loan operations.
type Book struct {
	ID              string    `db:"id" json:"id"`
	TenantID        string    `db:"tenant_id" json:"tenant_id"`
	Title           string    `db:"title" json:"title"`
	Author          string    `db:"author" json:"author"`
	TotalCopies     int       `db:"total_copies" json:"total_copies"`
	AvailableCopies int       `db:"available_copies" json:"available_copies"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// LoanStatus tracks a library loan lifecycle.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "ACTIVE"
	LoanStatusReturned LoanStatus = "RETURNED"
)

// Loan records one borrowed copy.
type Loan struct {
	ID         string     `db:"id" json:"id"`
	TenantID   string     `db:"tenant_id" json:"tenant_id"`
	BookID     string     `db:"book_id" json:"book_id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	BorrowedAt time.Time  `db:"borrowed_at" json:"borrowed_at"`
	DueAt      time.Time  `db:"due_at" json:"due_at"`
	ReturnedAt *time.Time `db:"returned_at" json:"returned_at,omitempty"`
	Status     LoanStatus `db:"status" json:"status"`
}
