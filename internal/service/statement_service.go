package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/repository"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
	"github.com/edusys-dev/campus-core-api/pkg/export"
	"github.com/edusys-dev/campus-core-api/pkg/jobs"
	"github.com/edusys-dev/campus-core-api/pkg/storage"
)

type statementRepo interface {
	Create(ctx context.Context, statement *models.Statement) error
	GetByID(ctx context.Context, tenantID, id string) (*models.Statement, error)
	Update(ctx context.Context, id string, params repository.UpdateStatementParams) error
}

type ledgerPeriodLister interface {
	ListForPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]models.LedgerTransaction, error)
}

type statementPayload struct {
	StatementID string
	TenantID    string
	Period      string
}

// SignedDownload points at a finished statement file.
type SignedDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StatementService generates monthly financial statements asynchronously. A
// request creates a QUEUED row and enqueues a render job; workers pull the
// period's ledger, render a PDF and park it in storage behind signed tokens.
type StatementService struct {
	statements statementRepo
	ledger     ledgerPeriodLister
	exporter   *export.PDFExporter
	store      *storage.LocalStorage
	signer     *storage.SignedURLSigner
	queue      *jobs.Queue
	logger     *zap.Logger
}

// NewStatementService constructs StatementService. Start must be called
// before statements can be requested.
func NewStatementService(statements statementRepo, ledger ledgerPeriodLister, exporter *export.PDFExporter, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, cfg jobs.QueueConfig) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StatementService{
		statements: statements,
		ledger:     ledger,
		exporter:   exporter,
		store:      store,
		signer:     signer,
		logger:     logger,
	}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("statements", s.handle, cfg)
	return s
}

// Start launches the worker pool.
func (s *StatementService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *StatementService) Stop() {
	s.queue.Stop()
}

// Request queues generation of the tenant's statement for a period.
func (s *StatementService) Request(ctx context.Context, tenantID, period, createdBy string) (*models.Statement, error) {
	period, err := models.ParsePeriod(period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid statement period")
	}

	statement := &models.Statement{
		TenantID:  tenantID,
		Period:    period,
		Status:    models.StatementStatusQueued,
		CreatedBy: createdBy,
	}
	if err := s.statements.Create(ctx, statement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create statement")
	}

	job := jobs.Job{
		ID:   statement.ID,
		Type: "statement.render",
		Payload: statementPayload{
			StatementID: statement.ID,
			TenantID:    tenantID,
			Period:      period,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.markFailed(ctx, statement.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue statement")
	}

	s.logger.Info("statement queued",
		zap.String("tenant_id", tenantID),
		zap.String("statement_id", statement.ID),
		zap.String("period", period))
	return statement, nil
}

// Get returns the statement row for status polling.
func (s *StatementService) Get(ctx context.Context, tenantID, id string) (*models.Statement, error) {
	statement, err := s.statements.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "statement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statement")
	}
	return statement, nil
}

// DownloadToken issues a signed token for a finished statement.
func (s *StatementService) DownloadToken(ctx context.Context, tenantID, id string) (*SignedDownload, error) {
	statement, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if statement.Status != models.StatementStatusDone || statement.FilePath == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "statement is not ready")
	}
	token, expiresAt, err := s.signer.Generate(statement.ID, *statement.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &SignedDownload{Token: token, ExpiresAt: expiresAt}, nil
}

// ResolveToken validates a signed token and returns the absolute file path.
func (s *StatementService) ResolveToken(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	return s.store.Path(relPath), nil
}

func (s *StatementService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(statementPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	processing := models.StatementStatusProcessing
	if err := s.statements.Update(ctx, payload.StatementID, repository.UpdateStatementParams{Status: &processing}); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := s.render(ctx, payload); err != nil {
		s.markFailed(ctx, payload.StatementID, err)
		return err
	}
	return nil
}

func (s *StatementService) render(ctx context.Context, payload statementPayload) error {
	from, err := models.PeriodStart(payload.Period)
	if err != nil {
		return err
	}
	to := from.AddDate(0, 1, 0)

	transactions, err := s.ledger.ListForPeriod(ctx, payload.TenantID, from, to)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
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

	data, err := s.exporter.Render(dataset, fmt.Sprintf("financial statement %s", payload.Period))
	if err != nil {
		return fmt.Errorf("render statement: %w", err)
	}

	relPath := path.Join(payload.TenantID, payload.Period, payload.StatementID+".pdf")
	if _, err := s.store.Save(relPath, data); err != nil {
		return fmt.Errorf("store statement: %w", err)
	}

	done := models.StatementStatusDone
	finishedAt := time.Now().UTC()
	if err := s.statements.Update(ctx, payload.StatementID, repository.UpdateStatementParams{
		Status:     &done,
		FilePath:   &relPath,
		FinishedAt: &finishedAt,
	}); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}

	s.logger.Info("statement rendered",
		zap.String("tenant_id", payload.TenantID),
		zap.String("statement_id", payload.StatementID),
		zap.Int("transactions", len(transactions)))
	return nil
}

func (s *StatementService) markFailed(ctx context.Context, statementID string, cause error) {
	failed := models.StatementStatusFailed
	msg := cause.Error()
	finishedAt := time.Now().UTC()
	if err := s.statements.Update(ctx, statementID, repository.UpdateStatementParams{
		Status:       &failed,
		ErrorMessage: &msg,
		FinishedAt:   &finishedAt,
	}); err != nil {
		s.logger.Error("failed to mark statement failed",
			zap.String("statement_id", statementID),
			zap.Error(err))
	}
}
