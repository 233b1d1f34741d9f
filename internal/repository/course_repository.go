package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// CourseRepository handles persistence of courses and subjects.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course scoped to the tenant.
func (r *CourseRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Course, error) {
	const query = `SELECT id, tenant_id, name, tuition_amount, payment_start_day, payment_end_day,
        late_fee_value, late_fee_type, created_at, updated_at
        FROM courses WHERE tenant_id = $1 AND id = $2`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, tenantID, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListByIDs returns the courses matching the provided IDs.
func (r *CourseRepository) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids)+1)
	args[0] = tenantID
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args[i+1] = id
	}
	query := fmt.Sprintf(`SELECT id, tenant_id, name, tuition_amount, payment_start_day, payment_end_day,
        late_fee_value, late_fee_type, created_at, updated_at
        FROM courses WHERE tenant_id = $1 AND id IN (%s)`, strings.Join(placeholders, ","))
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
