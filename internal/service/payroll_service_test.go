package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/repository"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
)

type mockPayrollRepo struct {
	entries  map[string]models.PayrollEntry
	payCalls int
}

func (m *mockPayrollRepo) FindByID(ctx context.Context, tenantID, id string) (*models.PayrollEntry, error) {
	if e, ok := m.entries[id]; ok && e.TenantID == tenantID {
		out := e
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPayrollRepo) List(ctx context.Context, tenantID string, filter models.PayrollFilter) ([]models.PayrollEntry, int, error) {
	var result []models.PayrollEntry
	for _, e := range m.entries {
		if e.TenantID != tenantID {
			continue
		}
		if filter.Period != "" && e.Period != filter.Period {
			continue
		}
		result = append(result, e)
	}
	return result, len(result), nil
}

func (m *mockPayrollRepo) InsertPendingBatch(ctx context.Context, entries []models.PayrollEntry) (int, error) {
	if m.entries == nil {
		m.entries = make(map[string]models.PayrollEntry)
	}
	created := 0
	for _, entry := range entries {
		duplicate := false
		for _, existing := range m.entries {
			if existing.EmployeeID == entry.EmployeeID && existing.Period == entry.Period {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		m.entries[entry.ID] = entry
		created++
	}
	return created, nil
}

func (m *mockPayrollRepo) Pay(ctx context.Context, params repository.PayPayrollParams) (*models.PayrollEntry, error) {
	m.payCalls++
	entry, ok := m.entries[params.EntryID]
	if !ok || entry.Status != models.PayrollStatusPending {
		return nil, sql.ErrNoRows
	}
	entry.Status = models.PayrollStatusPaid
	entry.AccountID = &params.AccountID
	entry.CategoryID = &params.CategoryID
	entry.PaidDate = &params.PaidAt
	m.entries[params.EntryID] = entry
	return &entry, nil
}

type mockEmployeeLister struct {
	employees []models.Employee
}

func (m *mockEmployeeLister) ListActive(ctx context.Context, tenantID string) ([]models.Employee, error) {
	return m.employees, nil
}

func TestGenerateMonthlyPayrollIdempotent(t *testing.T) {
	repo := &mockPayrollRepo{}
	employees := &mockEmployeeLister{employees: []models.Employee{
		{ID: "emp1", TenantID: "t1", FullName: "Ana", BaseSalary: decimal.NewFromInt(3000), Active: true},
		{ID: "emp2", TenantID: "t1", FullName: "Bruno", BaseSalary: decimal.NewFromInt(4500), Active: true},
	}}
	summaries := &mockSummaryInvalidator{}
	svc := NewPayrollService(repo, employees, testAccounts(), summaries, validator.New(), zap.NewNop(), nil)

	first, err := svc.GenerateMonthly(context.Background(), "t1", "2026-04")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, first.Skipped)

	second, err := svc.GenerateMonthly(context.Background(), "t1", "2026-04")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 2, len(repo.entries))

	for _, entry := range repo.entries {
		assert.Equal(t, models.PayrollStatusPending, entry.Status)
		assert.Equal(t, "2026-04", entry.Period)
	}
}

func TestGenerateMonthlyPayrollUsesBaseSalary(t *testing.T) {
	repo := &mockPayrollRepo{}
	employees := &mockEmployeeLister{employees: []models.Employee{
		{ID: "emp1", TenantID: "t1", BaseSalary: decimal.NewFromFloat(3210.55), Active: true},
	}}
	svc := NewPayrollService(repo, employees, testAccounts(), nil, validator.New(), zap.NewNop(), nil)

	_, err := svc.GenerateMonthly(context.Background(), "t1", "2026-04")
	require.NoError(t, err)
	for _, entry := range repo.entries {
		assert.True(t, entry.Amount.Equal(decimal.NewFromFloat(3210.55)))
	}
}

func TestGenerateMonthlyPayrollRejectsBadPeriod(t *testing.T) {
	svc := NewPayrollService(&mockPayrollRepo{}, &mockEmployeeLister{}, testAccounts(), nil, validator.New(), zap.NewNop(), nil)

	_, err := svc.GenerateMonthly(context.Background(), "t1", "2026/04")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestProcessPaymentSettlesEntry(t *testing.T) {
	repo := &mockPayrollRepo{entries: map[string]models.PayrollEntry{
		"pe1": {ID: "pe1", TenantID: "t1", EmployeeID: "emp1", Period: "2026-04", Amount: decimal.NewFromInt(3000), Status: models.PayrollStatusPending},
	}}
	summaries := &mockSummaryInvalidator{}
	svc := NewPayrollService(repo, &mockEmployeeLister{}, testAccounts(), summaries, validator.New(), zap.NewNop(), nil)

	paid, err := svc.ProcessPayment(context.Background(), "t1", "pe1", PayPayrollRequest{AccountID: "acc1", CategoryID: "cat1"})
	require.NoError(t, err)
	assert.Equal(t, models.PayrollStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.WithinDuration(t, time.Now().UTC(), *paid.PaidDate, time.Minute)
	assert.Equal(t, 1, summaries.calls)
}

func TestProcessPaymentAlreadyPaid(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockPayrollRepo{entries: map[string]models.PayrollEntry{
		"pe1": {ID: "pe1", TenantID: "t1", EmployeeID: "emp1", Period: "2026-04", Amount: decimal.NewFromInt(3000), Status: models.PayrollStatusPaid, PaidDate: &now},
	}}
	svc := NewPayrollService(repo, &mockEmployeeLister{}, testAccounts(), nil, validator.New(), zap.NewNop(), nil)

	_, err := svc.ProcessPayment(context.Background(), "t1", "pe1", PayPayrollRequest{AccountID: "acc1", CategoryID: "cat1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	assert.Equal(t, 0, repo.payCalls)
}

func TestProcessPaymentUnknownEntry(t *testing.T) {
	svc := NewPayrollService(&mockPayrollRepo{}, &mockEmployeeLister{}, testAccounts(), nil, validator.New(), zap.NewNop(), nil)

	_, err := svc.ProcessPayment(context.Background(), "t1", "missing", PayPayrollRequest{AccountID: "acc1", CategoryID: "cat1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestProcessPaymentUnknownAccount(t *testing.T) {
	repo := &mockPayrollRepo{entries: map[string]models.PayrollEntry{
		"pe1": {ID: "pe1", TenantID: "t1", Period: "2026-04", Amount: decimal.NewFromInt(3000), Status: models.PayrollStatusPending},
	}}
	svc := NewPayrollService(repo, &mockEmployeeLister{}, testAccounts(), nil, validator.New(), zap.NewNop(), nil)

	_, err := svc.ProcessPayment(context.Background(), "t1", "pe1", PayPayrollRequest{AccountID: "nope", CategoryID: "cat1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, 0, repo.payCalls)
}

func TestProcessPaymentMissingPayload(t *testing.T) {
	svc := NewPayrollService(&mockPayrollRepo{}, &mockEmployeeLister{}, testAccounts(), nil, validator.New(), zap.NewNop(), nil)

	_, err := svc.ProcessPayment(context.Background(), "t1", "pe1", PayPayrollRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
