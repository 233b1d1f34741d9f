package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/repository"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
	"github.com/edusys-dev/campus-core-api/pkg/export"
)

type financeRepo interface {
	FindAccount(ctx context.Context, tenantID, id string) (*models.Account, error)
	ListAccounts(ctx context.Context, tenantID string) ([]models.Account, error)
	ListTransactions(ctx context.Context, tenantID string, filter models.TransactionFilter) ([]models.LedgerTransaction, int, error)
	ListForPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]models.LedgerTransaction, error)
	Summary(ctx context.Context, tenantID string) ([]repository.SummaryRow, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// FinanceSummary aggregates ledger totals for a tenant.
type FinanceSummary struct {
	Income      decimal.Decimal `json:"income"`
	Expense     decimal.Decimal `json:"expense"`
	Net         decimal.Decimal `json:"net"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// FinanceService exposes accounts, the transaction ledger and cached totals.
type FinanceService struct {
	repo     financeRepo
	cache    summaryCache
	cacheTTL time.Duration
	csv      *export.CSVExporter
	logger   *zap.Logger
	metrics  *MetricsService
	now      func() time.Time
}

// NewFinanceService constructs FinanceService.
func NewFinanceService(repo financeRepo, cache summaryCache, cacheTTL time.Duration, logger *zap.Logger, metrics *MetricsService) *FinanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &FinanceService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		csv:      export.NewCSVExporter(),
		logger:   logger,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListAccounts returns the tenant's accounts.
func (s *FinanceService) ListAccounts(ctx context.Context, tenantID string) ([]models.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}
	return accounts, nil
}

// ListTransactions returns ledger postings for the tenant.
func (s *FinanceService) ListTransactions(ctx context.Context, tenantID string, filter models.TransactionFilter) ([]models.LedgerTransaction, int, error) {
	transactions, total, err := s.repo.ListTransactions(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transactions")
	}
	return transactions, total, nil
}

// ExportTransactions renders one period's ledger as CSV, ordered the way the
// storage layer returns it.
func (s *FinanceService) ExportTransactions(ctx context.Context, tenantID, period string) ([]byte, error) {
	period, err := models.ParsePeriod(period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export period")
	}
	from, err := models.PeriodStart(period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export period")
	}
	to := from.AddDate(0, 1, 0)

	transactions, err := s.repo.ListForPeriod(ctx, tenantID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Type", "Amount", "Description", "Reference"},
	}
	for _, tx := range transactions {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":        tx.PostedAt.Format("2006-01-02"),
			"Type":        string(tx.Type),
			"Amount":      tx.Amount.StringFixed(2),
			"Description": tx.Description,
			"Reference":   tx.ReferenceID,
		})
	}

	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return data, nil
}

// Summary returns income and expense totals, served from cache when fresh.
// Payments and batch runs invalidate the cached entry.
func (s *FinanceService) Summary(ctx context.Context, tenantID string) (*FinanceSummary, error) {
	key := repository.FinanceSummaryKey(tenantID)
	if s.cache != nil {
		var cached FinanceSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("finance summary cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	rows, err := s.repo.Summary(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute finance summary")
	}

	summary := &FinanceSummary{GeneratedAt: s.now()}
	for _, row := range rows {
		total, err := decimal.NewFromString(row.Total)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to parse summary total")
		}
		switch row.Type {
		case models.TransactionIncome:
			summary.Income = total
		case models.TransactionExpense:
			summary.Expense = total
		}
	}
	summary.Net = summary.Income.Sub(summary.Expense)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("finance summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}
