package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/repository"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
	"github.com/edusys-dev/campus-core-api/pkg/export"
)

type invoiceRepo interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.TuitionInvoice, error)
	List(ctx context.Context, tenantID string, filter models.InvoiceFilter) ([]models.TuitionInvoice, int, error)
	InsertPendingBatch(ctx context.Context, invoices []models.TuitionInvoice) (int, error)
	Pay(ctx context.Context, params repository.PayInvoiceParams) (*models.TuitionInvoice, error)
}

type billableEnrollmentLister interface {
	ListActiveBillable(ctx context.Context, tenantID string) ([]repository.BillableEnrollment, error)
}

type courseReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Course, error)
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Course, error)
}

type accountReader interface {
	FindAccount(ctx context.Context, tenantID, id string) (*models.Account, error)
	FindCategory(ctx context.Context, tenantID, id string) (*models.Category, error)
}

type summaryInvalidator interface {
	InvalidateFinanceSummary(ctx context.Context, tenantID string)
}

// PayInvoiceRequest applies a payment to a pending invoice.
type PayInvoiceRequest struct {
	AccountID  string `json:"account_id" validate:"required"`
	CategoryID string `json:"category_id" validate:"required"`
}

// ComputeLateFee returns the surcharge owed when paying at asOf. The fee is a
// function of calendar time: zero through the due date, then the policy's
// fixed amount or percentage of the invoice amount, with no compounding.
func ComputeLateFee(invoice models.TuitionInvoice, policy models.CourseBillingPolicy, asOf time.Time) decimal.Decimal {
	if !asOf.After(invoice.DueDate) {
		return decimal.Zero
	}
	switch policy.LateFeeType {
	case models.LateFeePercentage:
		return invoice.Amount.Mul(policy.LateFeeValue).Div(decimal.NewFromInt(100))
	case models.LateFeeFixed:
		return policy.LateFeeValue
	default:
		return decimal.Zero
	}
}

// BillingService owns the tuition invoice lifecycle: idempotent monthly
// generation, live late-fee projection, and atomic payment application.
type BillingService struct {
	invoices    invoiceRepo
	enrollments billableEnrollmentLister
	courses     courseReader
	accounts    accountReader
	summaries   summaryInvalidator
	exporter    *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	now         func() time.Time
}

// NewBillingService constructs BillingService.
func NewBillingService(invoices invoiceRepo, enrollments billableEnrollmentLister, courses courseReader, accounts accountReader, summaries summaryInvalidator, exporter *export.PDFExporter, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *BillingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		invoices:    invoices,
		enrollments: enrollments,
		courses:     courses,
		accounts:    accounts,
		summaries:   summaries,
		exporter:    exporter,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GenerateMonthlyInvoices creates one pending invoice per active enrollment
// for the period. Safe to re-run: existing (student, course, period) rows are
// skipped by the storage layer, also under concurrent invocation.
func (s *BillingService) GenerateMonthlyInvoices(ctx context.Context, tenantID, period string) (*models.BatchResult, error) {
	if tenantID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tenant required")
	}
	period, err := models.ParsePeriod(period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid billing period")
	}

	billable, err := s.enrollments.ListActiveBillable(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list billable enrollments")
	}

	invoices := make([]models.TuitionInvoice, 0, len(billable))
	for _, b := range billable {
		dueDate, err := models.DueDateFor(period, b.PaymentEndDay)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive due date")
		}
		invoices = append(invoices, models.TuitionInvoice{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			StudentID: b.StudentID,
			CourseID:  b.CourseID,
			Period:    period,
			DueDate:   dueDate,
			Amount:    b.TuitionAmount,
			LateFee:   decimal.Zero,
			Status:    models.InvoiceStatusPending,
		})
	}

	created, err := s.invoices.InsertPendingBatch(ctx, invoices)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert invoices")
	}
	if s.metrics != nil {
		s.metrics.AddInvoicesGenerated(created)
	}
	if s.summaries != nil {
		s.summaries.InvalidateFinanceSummary(ctx, tenantID)
	}
	s.logger.Info("monthly invoices generated",
		zap.String("tenant_id", tenantID),
		zap.String("period", period),
		zap.Int("created", created),
		zap.Int("skipped", len(invoices)-created))
	return &models.BatchResult{Created: created, Skipped: len(invoices) - created}, nil
}

// List returns invoices with the fee projected at request time. PAID rows
// keep their frozen fee; PENDING rows show the live projection.
func (s *BillingService) List(ctx context.Context, tenantID string, filter models.InvoiceFilter) ([]models.InvoiceView, int, error) {
	invoices, total, err := s.invoices.List(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}

	courseIDs := make([]string, 0, len(invoices))
	seen := make(map[string]bool, len(invoices))
	for _, inv := range invoices {
		if !seen[inv.CourseID] {
			courseIDs = append(courseIDs, inv.CourseID)
			seen[inv.CourseID] = true
		}
	}
	courses, err := s.courses.ListByIDs(ctx, tenantID, courseIDs)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course policies")
	}
	policies := make(map[string]models.CourseBillingPolicy, len(courses))
	for _, c := range courses {
		policies[c.ID] = c.CourseBillingPolicy
	}

	asOf := s.now()
	views := make([]models.InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		view := models.InvoiceView{TuitionInvoice: inv}
		if inv.Status == models.InvoiceStatusPaid {
			view.ProjectedFee = inv.LateFee
		} else {
			view.ProjectedFee = ComputeLateFee(inv, policies[inv.CourseID], asOf)
		}
		view.TotalDue = inv.Amount.Add(view.ProjectedFee)
		views = append(views, view)
	}
	return views, total, nil
}

// ApplyPayment transitions a PENDING invoice to PAID, freezing the late fee
// at payment time and posting an INCOME ledger transaction, all in one
// storage transaction. A concurrent duplicate call loses the conditional
// update and surfaces an invalid-state error.
func (s *BillingService) ApplyPayment(ctx context.Context, tenantID, invoiceID string, req PayInvoiceRequest) (*models.TuitionInvoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	invoice, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	if invoice.Status == models.InvoiceStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "invoice already paid")
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

	course, err := s.courses.FindByID(ctx, tenantID, invoice.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course policy missing")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	paidAt := s.now()
	lateFee := ComputeLateFee(*invoice, course.CourseBillingPolicy, paidAt)

	paid, err := s.invoices.Pay(ctx, repository.PayInvoiceParams{
		TenantID:    tenantID,
		InvoiceID:   invoiceID,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		LateFee:     lateFee,
		PaidAt:      paidAt,
		Description: fmt.Sprintf("tuition %s", invoice.Period),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race: another payment flipped the status first.
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "invoice already paid")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply payment")
	}

	if s.metrics != nil {
		s.metrics.IncPaymentsApplied("tuition")
	}
	if s.summaries != nil {
		s.summaries.InvalidateFinanceSummary(ctx, tenantID)
	}
	s.logger.Info("invoice paid",
		zap.String("tenant_id", tenantID),
		zap.String("invoice_id", invoiceID),
		zap.String("late_fee", lateFee.String()))
	return paid, nil
}

// Receipt renders a PDF receipt for a paid invoice.
func (s *BillingService) Receipt(ctx context.Context, tenantID, invoiceID string) ([]byte, error) {
	invoice, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	if invoice.Status != models.InvoiceStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "receipt available only for paid invoices")
	}
	paidDate := ""
	if invoice.PaidDate != nil {
		paidDate = invoice.PaidDate.Format("2006-01-02")
	}
	lines := []export.ReceiptLine{
		{Label: "Invoice", Value: invoice.ID},
		{Label: "Period", Value: invoice.Period},
		{Label: "Amount", Value: invoice.Amount.StringFixed(2)},
		{Label: "Late fee", Value: invoice.LateFee.StringFixed(2)},
		{Label: "Total", Value: invoice.Amount.Add(invoice.LateFee).StringFixed(2)},
		{Label: "Paid on", Value: paidDate},
	}
	data, err := s.exporter.RenderReceipt("tuition receipt", lines)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return data, nil
}
