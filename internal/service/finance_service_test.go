package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/repository"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
)

type mockFinanceRepo struct {
	summaryRows  []repository.SummaryRow
	summaryCalls int
	transactions []models.LedgerTransaction
}

func (m *mockFinanceRepo) FindAccount(ctx context.Context, tenantID, id string) (*models.Account, error) {
	return &models.Account{ID: id, TenantID: tenantID}, nil
}

func (m *mockFinanceRepo) ListAccounts(ctx context.Context, tenantID string) ([]models.Account, error) {
	return []models.Account{{ID: "acc1", TenantID: tenantID}}, nil
}

func (m *mockFinanceRepo) ListTransactions(ctx context.Context, tenantID string, filter models.TransactionFilter) ([]models.LedgerTransaction, int, error) {
	return m.transactions, len(m.transactions), nil
}

func (m *mockFinanceRepo) ListForPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]models.LedgerTransaction, error) {
	return m.transactions, nil
}

func (m *mockFinanceRepo) Summary(ctx context.Context, tenantID string) ([]repository.SummaryRow, error) {
	m.summaryCalls++
	return m.summaryRows, nil
}

// mockCache stores marshalled entries like the redis-backed repository does.
type mockCache struct {
	entries map[string][]byte
	sets    int
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.sets++
	return nil
}

func TestFinanceSummaryComputesNet(t *testing.T) {
	repo := &mockFinanceRepo{summaryRows: []repository.SummaryRow{
		{Type: models.TransactionIncome, Total: "12500.50"},
		{Type: models.TransactionExpense, Total: "8000"},
	}}
	svc := NewFinanceService(repo, nil, 0, zap.NewNop(), nil)

	summary, err := svc.Summary(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, summary.Income.Equal(decimal.NewFromFloat(12500.50)))
	assert.True(t, summary.Expense.Equal(decimal.NewFromInt(8000)))
	assert.True(t, summary.Net.Equal(decimal.NewFromFloat(4500.50)))
}

func TestFinanceSummaryCacheMissThenHit(t *testing.T) {
	repo := &mockFinanceRepo{summaryRows: []repository.SummaryRow{
		{Type: models.TransactionIncome, Total: "100"},
	}}
	cache := &mockCache{}
	svc := NewFinanceService(repo, cache, time.Minute, zap.NewNop(), nil)

	first, err := svc.Summary(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.summaryCalls)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from cache without touching storage.
	second, err := svc.Summary(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.summaryCalls)
	assert.True(t, first.Income.Equal(second.Income))
}

func TestFinanceSummaryEmptyLedger(t *testing.T) {
	svc := NewFinanceService(&mockFinanceRepo{}, nil, 0, zap.NewNop(), nil)

	summary, err := svc.Summary(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, summary.Income.IsZero())
	assert.True(t, summary.Expense.IsZero())
	assert.True(t, summary.Net.IsZero())
}

func TestFinanceExportTransactions(t *testing.T) {
	repo := &mockFinanceRepo{transactions: []models.LedgerTransaction{
		{
			Type:        models.TransactionIncome,
			Amount:      decimal.NewFromInt(1050),
			Description: "Tuition 2026-04",
			ReferenceID: "inv-1",
			PostedAt:    time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC),
		},
	}}
	svc := NewFinanceService(repo, nil, 0, zap.NewNop(), nil)

	data, err := svc.ExportTransactions(context.Background(), "t1", "2026-04")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Type,Amount,Description,Reference", lines[0])
	assert.Equal(t, "2026-04-12,INCOME,1050.00,Tuition 2026-04,inv-1", lines[1])
}

func TestFinanceExportTransactionsRejectsBadPeriod(t *testing.T) {
	svc := NewFinanceService(&mockFinanceRepo{}, nil, 0, zap.NewNop(), nil)

	_, err := svc.ExportTransactions(context.Background(), "t1", "april-2026")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestFinanceListAccounts(t *testing.T) {
	svc := NewFinanceService(&mockFinanceRepo{}, nil, 0, zap.NewNop(), nil)

	accounts, err := svc.ListAccounts(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "t1", accounts[0].TenantID)
}
