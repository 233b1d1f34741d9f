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

// PayPayrollParams carries everything the salary payout transaction needs.
type PayPayrollParams struct {
	TenantID    string
	EntryID     string
	AccountID   string
	CategoryID  string
	PaidAt      time.Time
	Description string
}

// PayrollRepository handles payroll entry persistence.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository creates a new payroll repository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

const payrollColumns = `id, tenant_id, employee_id, period, amount, status, category_id, account_id, paid_date, created_at, updated_at`

// FindByID returns a payroll entry scoped to the tenant.
func (r *PayrollRepository) FindByID(ctx context.Context, tenantID, id string) (*models.PayrollEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM payroll_entries WHERE tenant_id = $1 AND id = $2`, payrollColumns)
	var entry models.PayrollEntry
	if err := r.db.GetContext(ctx, &entry, query, tenantID, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns payroll entries matching the filter with a total count.
func (r *PayrollRepository) List(ctx context.Context, tenantID string, filter models.PayrollFilter) ([]models.PayrollEntry, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM payroll_entries%s ORDER BY period DESC, created_at DESC LIMIT %d OFFSET %d`,
		payrollColumns, clause, size, offset)
	var entries []models.PayrollEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payroll entries: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM payroll_entries" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payroll entries: %w", err)
	}
	return entries, total, nil
}

// InsertPendingBatch inserts entries, skipping any (tenant, employee, period)
// combination that already exists. Returns how many rows were actually
// inserted so a re-run of the same period reports zero created.
func (r *PayrollRepository) InsertPendingBatch(ctx context.Context, entries []models.PayrollEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		entries[i].CreatedAt = now
		entries[i].UpdatedAt = now
		const query = `INSERT INTO payroll_entries (id, tenant_id, employee_id, period, amount, status, category_id, account_id, paid_date, created_at, updated_at)
            VALUES (:id, :tenant_id, :employee_id, :period, :amount, :status, :category_id, :account_id, :paid_date, :created_at, :updated_at)
            ON CONFLICT (tenant_id, employee_id, period) DO NOTHING`
		res, err := tx.NamedExecContext(ctx, query, entries[i])
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, fmt.Errorf("insert payroll entry: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, fmt.Errorf("insert payroll entry result: %w", err)
		}
		created += int(affected)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit payroll entries: %w", err)
	}
	return created, nil
}

// Pay flips a PENDING entry to PAID, posts the EXPENSE transaction and debits
// the account balance as one transaction. A concurrent payout makes the
// conditional update match nothing and sql.ErrNoRows is returned.
func (r *PayrollRepository) Pay(ctx context.Context, params PayPayrollParams) (*models.PayrollEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	updateQuery := fmt.Sprintf(`UPDATE payroll_entries
        SET status = $1, account_id = $2, category_id = $3, paid_date = $4, updated_at = $4
        WHERE tenant_id = $5 AND id = $6 AND status = $7
        RETURNING %s`, payrollColumns)
	var entry models.PayrollEntry
	if err := tx.GetContext(ctx, &entry, updateQuery,
		models.PayrollStatusPaid, params.AccountID, params.CategoryID, params.PaidAt,
		params.TenantID, params.EntryID, models.PayrollStatusPending); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	transaction := models.LedgerTransaction{
		ID:          uuid.NewString(),
		TenantID:    params.TenantID,
		AccountID:   params.AccountID,
		CategoryID:  params.CategoryID,
		Type:        models.TransactionExpense,
		Amount:      entry.Amount,
		Description: params.Description,
		ReferenceID: entry.ID,
		PostedAt:    params.PaidAt,
	}
	const insertQuery = `INSERT INTO ledger_transactions (id, tenant_id, account_id, category_id, type, amount, description, reference_id, posted_at)
        VALUES (:id, :tenant_id, :account_id, :category_id, :type, :amount, :description, :reference_id, :posted_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, transaction); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("post expense transaction: %w", err)
	}

	const balanceQuery = `UPDATE accounts SET balance = balance - $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`
	if _, err := tx.ExecContext(ctx, balanceQuery, entry.Amount, params.PaidAt, params.TenantID, params.AccountID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("debit account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payout: %w", err)
	}
	return &entry, nil
}
