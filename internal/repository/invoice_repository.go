package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// PayInvoiceParams carries everything the payment transaction needs.
type PayInvoiceParams struct {
	TenantID    string
	InvoiceID   string
	AccountID   string
	CategoryID  string
	LateFee     decimal.Decimal
	PaidAt      time.Time
	Description string
}

// InvoiceRepository handles tuition invoice persistence.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, tenant_id, student_id, course_id, account_id, period, due_date, amount, late_fee, status, paid_date, created_at, updated_at`

// FindByID returns an invoice scoped to the tenant.
func (r *InvoiceRepository) FindByID(ctx context.Context, tenantID, id string) (*models.TuitionInvoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM tuition_invoices WHERE tenant_id = $1 AND id = $2`, invoiceColumns)
	var invoice models.TuitionInvoice
	if err := r.db.GetContext(ctx, &invoice, query, tenantID, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns invoices matching the filter with a total count.
func (r *InvoiceRepository) List(ctx context.Context, tenantID string, filter models.InvoiceFilter) ([]models.TuitionInvoice, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
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

	query := fmt.Sprintf(`SELECT %s FROM tuition_invoices%s ORDER BY due_date DESC LIMIT %d OFFSET %d`,
		invoiceColumns, clause, size, offset)
	var invoices []models.TuitionInvoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM tuition_invoices" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	return invoices, total, nil
}

// InsertPendingBatch inserts invoices, skipping any (tenant, student, course,
// period) combination that already exists. Returns how many rows were
// actually inserted, which stays correct under concurrent batch runs.
func (r *InvoiceRepository) InsertPendingBatch(ctx context.Context, invoices []models.TuitionInvoice) (int, error) {
	if len(invoices) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range invoices {
		if invoices[i].ID == "" {
			invoices[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		invoices[i].CreatedAt = now
		invoices[i].UpdatedAt = now
		const query = `INSERT INTO tuition_invoices (id, tenant_id, student_id, course_id, account_id, period, due_date, amount, late_fee, status, paid_date, created_at, updated_at)
            VALUES (:id, :tenant_id, :student_id, :course_id, :account_id, :period, :due_date, :amount, :late_fee, :status, :paid_date, :created_at, :updated_at)
            ON CONFLICT (tenant_id, student_id, course_id, period) DO NOTHING`
		res, err := tx.NamedExecContext(ctx, query, invoices[i])
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, fmt.Errorf("insert invoice: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, fmt.Errorf("insert invoice result: %w", err)
		}
		created += int(affected)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit invoices: %w", err)
	}
	return created, nil
}

// Pay flips a PENDING invoice to PAID, posts the INCOME transaction and
// credits the account balance as one transaction. The status flip is
// conditional: when another payment won the race the update matches nothing,
// the transaction is rolled back and sql.ErrNoRows is returned.
func (r *InvoiceRepository) Pay(ctx context.Context, params PayInvoiceParams) (*models.TuitionInvoice, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	updateQuery := fmt.Sprintf(`UPDATE tuition_invoices
        SET status = $1, account_id = $2, late_fee = $3, paid_date = $4, updated_at = $4
        WHERE tenant_id = $5 AND id = $6 AND status = $7
        RETURNING %s`, invoiceColumns)
	var invoice models.TuitionInvoice
	if err := tx.GetContext(ctx, &invoice, updateQuery,
		models.InvoiceStatusPaid, params.AccountID, params.LateFee, params.PaidAt,
		params.TenantID, params.InvoiceID, models.InvoiceStatusPending); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	total := invoice.Amount.Add(invoice.LateFee)
	transaction := models.LedgerTransaction{
		ID:          uuid.NewString(),
		TenantID:    params.TenantID,
		AccountID:   params.AccountID,
		CategoryID:  params.CategoryID,
		Type:        models.TransactionIncome,
		Amount:      total,
		Description: params.Description,
		ReferenceID: invoice.ID,
		PostedAt:    params.PaidAt,
	}
	const insertQuery = `INSERT INTO ledger_transactions (id, tenant_id, account_id, category_id, type, amount, description, reference_id, posted_at)
        VALUES (:id, :tenant_id, :account_id, :category_id, :type, :amount, :description, :reference_id, :posted_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, transaction); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("post income transaction: %w", err)
	}

	const balanceQuery = `UPDATE accounts SET balance = balance + $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`
	if _, err := tx.ExecContext(ctx, balanceQuery, total, params.PaidAt, params.TenantID, params.AccountID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("credit account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}
	return &invoice, nil
}
