package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

func payrollRows(id string, status models.PayrollStatus, amount string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "tenant_id", "employee_id", "period", "amount", "status", "category_id", "account_id", "paid_date", "created_at", "updated_at"}).
		AddRow(id, "t1", "emp1", "2026-04", amount, string(status), nil, nil, nil, now, now)
}

func TestPayrollRepositoryInsertPendingBatchCountsInserted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayrollRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payroll_entries")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Duplicate (tenant, employee, period) is swallowed by the conflict target.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payroll_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	entries := []models.PayrollEntry{
		{TenantID: "t1", EmployeeID: "emp1", Period: "2026-04", Amount: decimal.NewFromInt(3000), Status: models.PayrollStatusPending},
		{TenantID: "t1", EmployeeID: "emp2", Period: "2026-04", Amount: decimal.NewFromInt(4500), Status: models.PayrollStatusPending},
	}
	created, err := repo.InsertPendingBatch(context.Background(), entries)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryPayPostsExpenseAndDebitsAccount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayrollRepository(db)
	paidAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE payroll_entries")).
		WithArgs(string(models.PayrollStatusPaid), "acc1", "cat1", paidAt, "t1", "pe-1", string(models.PayrollStatusPending)).
		WillReturnRows(payrollRows("pe-1", models.PayrollStatusPaid, "3000"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance = balance -")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := repo.Pay(context.Background(), PayPayrollParams{
		TenantID:    "t1",
		EntryID:     "pe-1",
		AccountID:   "acc1",
		CategoryID:  "cat1",
		PaidAt:      paidAt,
		Description: "payroll 2026-04",
	})
	require.NoError(t, err)
	require.Equal(t, "pe-1", entry.ID)
	require.True(t, entry.Amount.Equal(decimal.NewFromInt(3000)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryPayLosesRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayrollRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE payroll_entries")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Pay(context.Background(), PayPayrollParams{
		TenantID: "t1",
		EntryID:  "pe-1",
		PaidAt:   time.Now().UTC(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPayrollRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, employee_id, period")).
		WithArgs("t1", "emp1", "2026-04").
		WillReturnRows(payrollRows("pe-1", models.PayrollStatusPending, "3000"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM payroll_entries")).
		WithArgs("t1", "emp1", "2026-04").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	entries, total, err := repo.List(context.Background(), "t1", models.PayrollFilter{
		EmployeeID: "emp1",
		Period:     "2026-04",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
