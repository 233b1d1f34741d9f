package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

func activeLoan() *models.Loan {
	now := time.Now().UTC()
	return &models.Loan{
		ID:         "loan-1",
		TenantID:   "t1",
		BookID:     "book-1",
		StudentID:  "stu1",
		BorrowedAt: now,
		DueAt:      now.Add(14 * 24 * time.Hour),
		Status:     models.LoanStatusActive,
	}
}

func TestLibraryRepositoryBorrowDecrementsAndInserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)
	loan := activeLoan()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books")).
		WithArgs(loan.BorrowedAt, "t1", "book-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO loans")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Borrow(context.Background(), loan))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepositoryBorrowNoCopies(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)
	loan := activeLoan()

	mock.ExpectBegin()
	// Counter already at zero: the guarded decrement matches nothing.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Borrow(context.Background(), loan)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepositoryReturnRestoresCounter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)
	returnedAt := time.Now().UTC()
	borrowedAt := returnedAt.Add(-48 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "book_id", "student_id", "borrowed_at", "due_at", "returned_at", "status"}).
		AddRow("loan-1", "t1", "book-1", "stu1", borrowedAt, borrowedAt.Add(14*24*time.Hour), returnedAt, string(models.LoanStatusReturned))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE loans")).
		WithArgs(string(models.LoanStatusReturned), returnedAt, "t1", "loan-1", string(models.LoanStatusActive)).
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books")).
		WithArgs(returnedAt, "t1", "book-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	loan, err := repo.Return(context.Background(), "t1", "loan-1", returnedAt)
	require.NoError(t, err)
	require.Equal(t, models.LoanStatusReturned, loan.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepositoryReturnAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)
	returnedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE loans")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Return(context.Background(), "t1", "loan-1", returnedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepositoryFindBook(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "title", "author", "total_copies", "available_copies", "created_at", "updated_at"}).
		AddRow("book-1", "t1", "Calculus I", "Stewart", 3, 2, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, title, author")).
		WithArgs("t1", "book-1").
		WillReturnRows(rows)

	book, err := repo.FindByID(context.Background(), "t1", "book-1")
	require.NoError(t, err)
	require.Equal(t, 2, book.AvailableCopies)
	require.NoError(t, mock.ExpectationsWereMet())
}
