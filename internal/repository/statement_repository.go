package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// StatementRepository persists statement generation metadata.
type StatementRepository struct {
	db *sqlx.DB
}

// NewStatementRepository constructs the repository.
func NewStatementRepository(db *sqlx.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

const statementColumns = `id, tenant_id, period, status, file_path, error_message, created_by, created_at, finished_at`

// Create inserts a new statement row with generated defaults.
func (r *StatementRepository) Create(ctx context.Context, statement *models.Statement) error {
	if statement.ID == "" {
		statement.ID = uuid.NewString()
	}
	if statement.Status == "" {
		statement.Status = models.StatementStatusQueued
	}
	if statement.CreatedAt.IsZero() {
		statement.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO statements (id, tenant_id, period, status, file_path, error_message, created_by, created_at, finished_at)
        VALUES (:id, :tenant_id, :period, :status, :file_path, :error_message, :created_by, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, statement); err != nil {
		return fmt.Errorf("create statement: %w", err)
	}
	return nil
}

// GetByID returns a statement row scoped to the tenant.
func (r *StatementRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Statement, error) {
	query := fmt.Sprintf(`SELECT %s FROM statements WHERE tenant_id = $1 AND id = $2`, statementColumns)
	var statement models.Statement
	if err := r.db.GetContext(ctx, &statement, query, tenantID, id); err != nil {
		return nil, err
	}
	return &statement, nil
}

// UpdateStatementParams defines the mutable fields.
type UpdateStatementParams struct {
	Status       *models.StatementStatus
	FilePath     *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update persists the provided changes for a statement row.
func (r *StatementRepository) Update(ctx context.Context, id string, params UpdateStatementParams) error {
	set := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.FilePath != nil {
		set = append(set, fmt.Sprintf("file_path = $%d", argPos))
		args = append(args, *params.FilePath)
		argPos++
	}
	if params.ErrorMessage != nil {
		set = append(set, fmt.Sprintf("error_message = $%d", argPos))
		args = append(args, *params.ErrorMessage)
		argPos++
	}
	if params.FinishedAt != nil {
		set = append(set, fmt.Sprintf("finished_at = $%d", argPos))
		args = append(args, *params.FinishedAt)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE statements SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update statement: %w", err)
	}
	return nil
}

// ListFinishedBefore retrieves completed statements prior to cutoff for cleanup.
func (r *StatementRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Statement, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM statements
        WHERE status = 'DONE' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`, statementColumns)
	var statements []models.Statement
	if err := r.db.SelectContext(ctx, &statements, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished statements: %w", err)
	}
	return statements, nil
}
