package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// EmployeeRepository handles employee persistence.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID returns an employee scoped to the tenant.
func (r *EmployeeRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Employee, error) {
	const query = `SELECT id, tenant_id, full_name, email, base_salary, active, created_at, updated_at
        FROM employees WHERE tenant_id = $1 AND id = $2`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, tenantID, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListActive returns the employees eligible for a payroll run.
func (r *EmployeeRepository) ListActive(ctx context.Context, tenantID string) ([]models.Employee, error) {
	const query = `SELECT id, tenant_id, full_name, email, base_salary, active, created_at, updated_at
        FROM employees WHERE tenant_id = $1 AND active = true ORDER BY full_name`
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, tenantID); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	return employees, nil
}
