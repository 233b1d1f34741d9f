package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// AssessmentScoreRepository handles assessment score persistence.
type AssessmentScoreRepository struct {
	db *sqlx.DB
}

// NewAssessmentScoreRepository creates a new score repository.
func NewAssessmentScoreRepository(db *sqlx.DB) *AssessmentScoreRepository {
	return &AssessmentScoreRepository{db: db}
}

// ListByEnrollmentSubject returns all recorded scores for the scope.
func (r *AssessmentScoreRepository) ListByEnrollmentSubject(ctx context.Context, tenantID, enrollmentID, subjectID string) ([]models.AssessmentScore, error) {
	const query = `SELECT id, tenant_id, enrollment_id, subject_id, type, value, created_at, updated_at
        FROM assessment_scores
        WHERE tenant_id = $1 AND enrollment_id = $2 AND subject_id = $3
        ORDER BY type`
	var scores []models.AssessmentScore
	if err := r.db.SelectContext(ctx, &scores, query, tenantID, enrollmentID, subjectID); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// Upsert inserts or replaces the score for one assessment type.
func (r *AssessmentScoreRepository) Upsert(ctx context.Context, score *models.AssessmentScore) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO assessment_scores (id, tenant_id, enrollment_id, subject_id, type, value, created_at, updated_at)
        VALUES (:id, :tenant_id, :enrollment_id, :subject_id, :type, :value, :created_at, :updated_at)
        ON CONFLICT (tenant_id, enrollment_id, subject_id, type)
        DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}
