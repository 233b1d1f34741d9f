package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// FinanceRepository handles accounts, categories and the transaction ledger.
type FinanceRepository struct {
	db *sqlx.DB
}

// NewFinanceRepository creates a new finance repository.
func NewFinanceRepository(db *sqlx.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

// FindAccount returns an account scoped to the tenant.
func (r *FinanceRepository) FindAccount(ctx context.Context, tenantID, id string) (*models.Account, error) {
	const query = `SELECT id, tenant_id, name, balance, active, created_at, updated_at
        FROM accounts WHERE tenant_id = $1 AND id = $2`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, tenantID, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListAccounts returns every account for the tenant.
func (r *FinanceRepository) ListAccounts(ctx context.Context, tenantID string) ([]models.Account, error) {
	const query = `SELECT id, tenant_id, name, balance, active, created_at, updated_at
        FROM accounts WHERE tenant_id = $1 ORDER BY name`
	var accounts []models.Account
	if err := r.db.SelectContext(ctx, &accounts, query, tenantID); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// FindCategory returns a ledger category scoped to the tenant.
func (r *FinanceRepository) FindCategory(ctx context.Context, tenantID, id string) (*models.Category, error) {
	const query = `SELECT id, tenant_id, name, created_at FROM categories WHERE tenant_id = $1 AND id = $2`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, tenantID, id); err != nil {
		return nil, err
	}
	return &category, nil
}

const transactionColumns = `id, tenant_id, account_id, category_id, type, amount, description, reference_id, posted_at`

// ListTransactions returns ledger postings matching the filter with a total count.
func (r *FinanceRepository) ListTransactions(ctx context.Context, tenantID string, filter models.TransactionFilter) ([]models.LedgerTransaction, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	if filter.AccountID != "" {
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", len(args)+1))
		args = append(args, filter.AccountID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("posted_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("posted_at < $%d", len(args)+1))
		args = append(args, *filter.To)
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

	query := fmt.Sprintf(`SELECT %s FROM ledger_transactions%s ORDER BY posted_at DESC LIMIT %d OFFSET %d`,
		transactionColumns, clause, size, offset)
	var transactions []models.LedgerTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM ledger_transactions" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	return transactions, total, nil
}

// ListForPeriod returns every posting inside [from, to), oldest first. Used
// by the statement renderer which needs the full history for the period.
func (r *FinanceRepository) ListForPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]models.LedgerTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM ledger_transactions
        WHERE tenant_id = $1 AND posted_at >= $2 AND posted_at < $3 ORDER BY posted_at`, transactionColumns)
	var transactions []models.LedgerTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, tenantID, from, to); err != nil {
		return nil, fmt.Errorf("list period transactions: %w", err)
	}
	return transactions, nil
}

// SummaryRow aggregates ledger totals per transaction type.
type SummaryRow struct {
	Type  models.TransactionType `db:"type"`
	Total string                 `db:"total"`
}

// Summary returns income and expense totals for the tenant.
func (r *FinanceRepository) Summary(ctx context.Context, tenantID string) ([]SummaryRow, error) {
	const query = `SELECT type, COALESCE(SUM(amount), 0)::text AS total
        FROM ledger_transactions WHERE tenant_id = $1 GROUP BY type`
	var rows []SummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, fmt.Errorf("finance summary: %w", err)
	}
	return rows, nil
}
