package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// SubjectRepository handles persistence of subjects and their grading policy.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID returns a subject scoped to the tenant.
func (r *SubjectRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Subject, error) {
	const query = `SELECT id, tenant_id, course_id, name, waiver_grade, exclusion_grade, exam_waiver_possible,
        created_at, updated_at
        FROM subjects WHERE tenant_id = $1 AND id = $2`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, tenantID, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListByCourse returns all subjects of a course.
func (r *SubjectRepository) ListByCourse(ctx context.Context, tenantID, courseID string) ([]models.Subject, error) {
	const query = `SELECT id, tenant_id, course_id, name, waiver_grade, exclusion_grade, exam_waiver_possible,
        created_at, updated_at
        FROM subjects WHERE tenant_id = $1 AND course_id = $2 ORDER BY name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, tenantID, courseID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
