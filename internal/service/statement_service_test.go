package service

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/repository"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
	"github.com/edusys-dev/campus-core-api/pkg/export"
	"github.com/edusys-dev/campus-core-api/pkg/jobs"
	"github.com/edusys-dev/campus-core-api/pkg/storage"
)

type statementRepoStub struct {
	mu         sync.Mutex
	statements map[string]*models.Statement
}

func newStatementRepoStub() *statementRepoStub {
	return &statementRepoStub{statements: map[string]*models.Statement{}}
}

func (r *statementRepoStub) Create(ctx context.Context, statement *models.Statement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if statement.ID == "" {
		statement.ID = uuid.NewString()
	}
	statement.CreatedAt = time.Now().UTC()
	stored := *statement
	r.statements[statement.ID] = &stored
	return nil
}

func (r *statementRepoStub) GetByID(ctx context.Context, tenantID, id string) (*models.Statement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	statement, ok := r.statements[id]
	if !ok || statement.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	out := *statement
	return &out, nil
}

func (r *statementRepoStub) Update(ctx context.Context, id string, params repository.UpdateStatementParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	statement, ok := r.statements[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		statement.Status = *params.Status
	}
	if params.FilePath != nil {
		statement.FilePath = params.FilePath
	}
	if params.ErrorMessage != nil {
		statement.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		statement.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *statementRepoStub) status(id string) models.StatementStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	statement, ok := r.statements[id]
	if !ok {
		return ""
	}
	return statement.Status
}

type ledgerStub struct {
	transactions []models.LedgerTransaction
}

func (l *ledgerStub) ListForPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]models.LedgerTransaction, error) {
	return l.transactions, nil
}

func newStatementServiceForTest(t *testing.T, ledger ledgerPeriodLister) (*StatementService, *statementRepoStub) {
	t.Helper()
	repo := newStatementRepoStub()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewStatementService(repo, ledger, export.NewPDFExporter(), store, signer, zap.NewNop(), jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	})
	return svc, repo
}

func TestStatementRequestRendersAsync(t *testing.T) {
	ledger := &ledgerStub{transactions: []models.LedgerTransaction{
		{ID: "tx1", TenantID: "t1", Type: models.TransactionIncome, Amount: decimal.NewFromInt(1050), Description: "tuition 2026-03", ReferenceID: "inv-1", PostedAt: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)},
		{ID: "tx2", TenantID: "t1", Type: models.TransactionExpense, Amount: decimal.NewFromInt(3000), Description: "payroll 2026-03", ReferenceID: "pe-1", PostedAt: time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC)},
	}}
	svc, repo := newStatementServiceForTest(t, ledger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	statement, err := svc.Request(context.Background(), "t1", "2026-03", "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatementStatusQueued, statement.Status)

	require.Eventually(t, func() bool {
		return repo.status(statement.ID) == models.StatementStatusDone
	}, 5*time.Second, 20*time.Millisecond)

	finished, err := svc.Get(context.Background(), "t1", statement.ID)
	require.NoError(t, err)
	require.NotNil(t, finished.FilePath)

	download, err := svc.DownloadToken(context.Background(), "t1", statement.ID)
	require.NoError(t, err)
	require.NotEmpty(t, download.Token)

	filePath, err := svc.ResolveToken(download.Token)
	require.NoError(t, err)
	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestStatementRequestRejectsBadPeriod(t *testing.T) {
	svc, _ := newStatementServiceForTest(t, &ledgerStub{})

	_, err := svc.Request(context.Background(), "t1", "Q1-2026", "user-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStatementDownloadTokenNotReady(t *testing.T) {
	svc, repo := newStatementServiceForTest(t, &ledgerStub{})
	statement := &models.Statement{TenantID: "t1", Period: "2026-03", Status: models.StatementStatusQueued}
	require.NoError(t, repo.Create(context.Background(), statement))

	_, err := svc.DownloadToken(context.Background(), "t1", statement.ID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestStatementGetUnknown(t *testing.T) {
	svc, _ := newStatementServiceForTest(t, &ledgerStub{})

	_, err := svc.Get(context.Background(), "t1", "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStatementResolveTokenRejectsGarbage(t *testing.T) {
	svc, _ := newStatementServiceForTest(t, &ledgerStub{})

	_, err := svc.ResolveToken("not-a-token")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
