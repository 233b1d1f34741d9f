package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/repository"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
)

type payrollRepo interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.PayrollEntry, error)
	List(ctx context.Context, tenantID string, filter models.PayrollFilter) ([]models.PayrollEntry, int, error)
	InsertPendingBatch(ctx context.Context, entries []models.PayrollEntry) (int, error)
	Pay(ctx context.Context, params repository.PayPayrollParams) (*models.PayrollEntry, error)
}

type employeeLister interface {
	ListActive(ctx context.Context, tenantID string) ([]models.Employee, error)
}

// PayPayrollRequest settles a pending payroll entry.
type PayPayrollRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
	AccountID  string `json:"account_id" validate:"required"`
}

// PayrollService runs the monthly payroll batch and settles entries. The
// batch mirrors invoice generation: one pending obligation per employee per
// period, duplicates suppressed by the storage layer.
type PayrollService struct {
	payroll   payrollRepo
	employees employeeLister
	accounts  accountReader
	summaries summaryInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewPayrollService constructs PayrollService.
func NewPayrollService(payroll payrollRepo, employees employeeLister, accounts accountReader, summaries summaryInvalidator, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *PayrollService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{
		payroll:   payroll,
		employees: employees,
		accounts:  accounts,
		summaries: summaries,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GenerateMonthly creates one PENDING entry at base salary for every active
// employee without an entry for the period. Re-running (including
// concurrently) never duplicates: the insert skips existing
// (employee, period) rows.
func (s *PayrollService) GenerateMonthly(ctx context.Context, tenantID, period string) (*models.BatchResult, error) {
	if tenantID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tenant required")
	}
	period, err := models.ParsePeriod(period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payroll period")
	}

	employees, err := s.employees.ListActive(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active employees")
	}

	entries := make([]models.PayrollEntry, 0, len(employees))
	for _, emp := range employees {
		entries = append(entries, models.PayrollEntry{
			ID:         uuid.NewString(),
			TenantID:   tenantID,
			EmployeeID: emp.ID,
			Period:     period,
			Amount:     emp.BaseSalary,
			Status:     models.PayrollStatusPending,
		})
	}

	created, err := s.payroll.InsertPendingBatch(ctx, entries)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert payroll entries")
	}
	if s.metrics != nil {
		s.metrics.AddPayrollGenerated(created)
	}
	if s.summaries != nil {
		s.summaries.InvalidateFinanceSummary(ctx, tenantID)
	}
	s.logger.Info("monthly payroll generated",
		zap.String("tenant_id", tenantID),
		zap.String("period", period),
		zap.Int("created", created),
		zap.Int("skipped", len(entries)-created))
	return &models.BatchResult{Created: created, Skipped: len(entries) - created}, nil
}

// List returns payroll entries for the tenant.
func (s *PayrollService) List(ctx context.Context, tenantID string, filter models.PayrollFilter) ([]models.PayrollEntry, int, error) {
	entries, total, err := s.payroll.List(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payroll entries")
	}
	return entries, total, nil
}

// ProcessPayment transitions a PENDING entry to PAID and posts an EXPENSE
// transaction debiting the account, in one storage transaction. Same race
// contract as tuition payment: the second of two concurrent calls gets an
// invalid-state error and no second ledger posting.
func (s *PayrollService) ProcessPayment(ctx context.Context, tenantID, entryID string, req PayPayrollRequest) (*models.PayrollEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	entry, err := s.payroll.FindByID(ctx, tenantID, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payroll entry")
	}
	if entry.Status == models.PayrollStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "payroll entry already paid")
	}

	if _, err := s.accounts.FindAccount(ctx, tenantID, req.AccountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if _, err := s.accounts.FindCategory(ctx, tenantID, req.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	paid, err := s.payroll.Pay(ctx, repository.PayPayrollParams{
		TenantID:    tenantID,
		EntryID:     entryID,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		PaidAt:      s.now(),
		Description: fmt.Sprintf("payroll %s", entry.Period),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "payroll entry already paid")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process payroll payment")
	}

	if s.metrics != nil {
		s.metrics.IncPaymentsApplied("payroll")
	}
	if s.summaries != nil {
		s.summaries.InvalidateFinanceSummary(ctx, tenantID)
	}
	s.logger.Info("payroll entry paid",
		zap.String("tenant_id", tenantID),
		zap.String("entry_id", entryID))
	return paid, nil
}
