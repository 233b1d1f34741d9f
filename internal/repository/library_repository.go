package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// LibraryRepository handles books and loans. Availability counters are only
// mutated through conditional updates inside the loan transactions.
type LibraryRepository struct {
	db *sqlx.DB
}

// NewLibraryRepository creates a new library repository.
func NewLibraryRepository(db *sqlx.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// FindByID returns a book scoped to the tenant.
func (r *LibraryRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Book, error) {
	const query = `SELECT id, tenant_id, title, author, total_copies, available_copies, created_at, updated_at
        FROM books WHERE tenant_id = $1 AND id = $2`
	var book models.Book
	if err := r.db.GetContext(ctx, &book, query, tenantID, id); err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns every book for the tenant.
func (r *LibraryRepository) ListBooks(ctx context.Context, tenantID string) ([]models.Book, error) {
	const query = `SELECT id, tenant_id, title, author, total_copies, available_copies, created_at, updated_at
        FROM books WHERE tenant_id = $1 ORDER BY title`
	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, query, tenantID); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// FindLoan returns a loan scoped to the tenant.
func (r *LibraryRepository) FindLoan(ctx context.Context, tenantID, id string) (*models.Loan, error) {
	const query = `SELECT id, tenant_id, book_id, student_id, borrowed_at, due_at, returned_at, status
        FROM loans WHERE tenant_id = $1 AND id = $2`
	var loan models.Loan
	if err := r.db.GetContext(ctx, &loan, query, tenantID, id); err != nil {
		return nil, err
	}
	return &loan, nil
}

// Borrow decrements the availability counter and inserts the loan in one
// transaction. The decrement only matches when a copy is still available;
// when it matches nothing the transaction is rolled back and sql.ErrNoRows
// is returned, so two students cannot claim the last copy.
func (r *LibraryRepository) Borrow(ctx context.Context, loan *models.Loan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const decrementQuery = `UPDATE books
        SET available_copies = available_copies - 1, updated_at = $1
        WHERE tenant_id = $2 AND id = $3 AND available_copies > 0`
	res, err := tx.ExecContext(ctx, decrementQuery, loan.BorrowedAt, loan.TenantID, loan.BookID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("decrement availability: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("decrement availability result: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}

	const insertQuery = `INSERT INTO loans (id, tenant_id, book_id, student_id, borrowed_at, due_at, returned_at, status)
        VALUES (:id, :tenant_id, :book_id, :student_id, :borrowed_at, :due_at, :returned_at, :status)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, loan); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit borrow: %w", err)
	}
	return nil
}

// Return closes an ACTIVE loan and restores the availability counter in one
// transaction. A loan that is already RETURNED makes the conditional update
// match nothing and sql.ErrNoRows is returned.
func (r *LibraryRepository) Return(ctx context.Context, tenantID, loanID string, returnedAt time.Time) (*models.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	const closeQuery = `UPDATE loans
        SET status = $1, returned_at = $2
        WHERE tenant_id = $3 AND id = $4 AND status = $5
        RETURNING id, tenant_id, book_id, student_id, borrowed_at, due_at, returned_at, status`
	var loan models.Loan
	if err := tx.GetContext(ctx, &loan, closeQuery,
		models.LoanStatusReturned, returnedAt, tenantID, loanID, models.LoanStatusActive); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	const incrementQuery = `UPDATE books
        SET available_copies = available_copies + 1, updated_at = $1
        WHERE tenant_id = $2 AND id = $3`
	if _, err := tx.ExecContext(ctx, incrementQuery, returnedAt, tenantID, loan.BookID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("restore availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit return: %w", err)
	}
	return &loan, nil
}
