package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
)

// loanPeriod is how long a borrowed copy may be kept.
const loanPeriod = 14 * 24 * time.Hour

type loanRepo interface {
	FindLoan(ctx context.Context, tenantID, id string) (*models.Loan, error)
	Borrow(ctx context.Context, loan *models.Loan) error
	Return(ctx context.Context, tenantID, loanID string, returnedAt time.Time) (*models.Loan, error)
}

type bookReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Book, error)
}

// BorrowRequest opens a loan for one copy.
type BorrowRequest struct {
	BookID    string `json:"book_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

// LibraryService manages loans over the book availability counter. The
// counter is only ever mutated through conditional updates so concurrent
// borrows cannot drive it negative.
type LibraryService struct {
	loans     loanRepo
	books     bookReader
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewLibraryService constructs LibraryService.
func NewLibraryService(loans loanRepo, books bookReader, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *LibraryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LibraryService{
		loans:     loans,
		books:     books,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Borrow decrements availability and creates the loan in one storage
// transaction. When no copy is available the conditional decrement matches
// nothing and the call fails with a conflict.
func (s *LibraryService) Borrow(ctx context.Context, tenantID string, req BorrowRequest) (*models.Loan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid loan payload")
	}
	if _, err := s.books.FindByID(ctx, tenantID, req.BookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "book not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}

	borrowedAt := s.now()
	loan := &models.Loan{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		BookID:     req.BookID,
		StudentID:  req.StudentID,
		BorrowedAt: borrowedAt,
		DueAt:      borrowedAt.Add(loanPeriod),
		Status:     models.LoanStatusActive,
	}
	if err := s.loans.Borrow(ctx, loan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "no copies available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create loan")
	}
	if s.metrics != nil {
		s.metrics.IncLoansOpened()
	}
	s.logger.Info("loan opened",
		zap.String("tenant_id", tenantID),
		zap.String("book_id", req.BookID),
		zap.String("loan_id", loan.ID))
	return loan, nil
}

// Return closes an active loan and restores the availability counter in one
// storage transaction. Returning twice fails with an invalid-state error.
func (s *LibraryService) Return(ctx context.Context, tenantID, loanID string) (*models.Loan, error) {
	if _, err := s.loans.FindLoan(ctx, tenantID, loanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "loan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load loan")
	}

	loan, err := s.loans.Return(ctx, tenantID, loanID, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "loan already returned")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close loan")
	}
	s.logger.Info("loan returned",
		zap.String("tenant_id", tenantID),
		zap.String("loan_id", loanID))
	return loan, nil
}
