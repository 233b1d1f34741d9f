package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// BillableEnrollment is the projection consumed by invoice generation.
type BillableEnrollment struct {
	EnrollmentID  string          `db:"enrollment_id"`
	StudentID     string          `db:"student_id"`
	CourseID      string          `db:"course_id"`
	TuitionAmount decimal.Decimal `db:"tuition_amount"`
	PaymentEndDay int             `db:"payment_end_day"`
}

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment scoped to the tenant.
func (r *EnrollmentRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Enrollment, error) {
	const query = `SELECT id, tenant_id, student_id, course_id, joined_at, left_at, status
        FROM enrollments WHERE tenant_id = $1 AND id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, tenantID, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.JoinedAt.IsZero() {
		enrollment.JoinedAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO enrollments (id, tenant_id, student_id, course_id, joined_at, left_at, status)
        VALUES (:id, :tenant_id, :student_id, :course_id, :joined_at, :left_at, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// ListActiveBillable returns active enrollments joined with course billing data.
func (r *EnrollmentRepository) ListActiveBillable(ctx context.Context, tenantID string) ([]BillableEnrollment, error) {
	const query = `SELECT e.id AS enrollment_id, e.student_id, e.course_id, c.tuition_amount, c.payment_end_day
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.tenant_id = $1 AND e.status = $2`
	var rows []BillableEnrollment
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list billable enrollments: %w", err)
	}
	return rows, nil
}
