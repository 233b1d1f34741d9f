package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/service"
	"github.com/edusys-dev/campus-core-api/pkg/response"
)

// FinanceHandler exposes account, ledger and summary endpoints.
type FinanceHandler struct {
	service *service.FinanceService
}

// NewFinanceHandler creates a new handler.
func NewFinanceHandler(svc *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{service: svc}
}

// ListAccounts godoc
// @Summary List accounts
// @Tags Finance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /accounts [get]
func (h *FinanceHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.service.ListAccounts(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, accounts, nil)
}

// ListTransactions godoc
// @Summary List ledger transactions
// @Tags Finance
// @Produce json
// @Param account_id query string false "Account filter"
// @Param type query string false "Type filter (INCOME, EXPENSE)"
// @Param from query string false "Posted-at lower bound (RFC 3339)"
// @Param to query string false "Posted-at upper bound (RFC 3339)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /transactions [get]
func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	filter := models.TransactionFilter{
		AccountID: c.Query("account_id"),
		Type:      models.TransactionType(c.Query("type")),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 20),
	}
	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &t
		}
	}

	transactions, total, err := h.service.ListTransactions(c.Request.Context(), tenantFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, transactions, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// ExportTransactions godoc
// @Summary Export ledger transactions
// @Description Downloads one period's ledger as CSV
// @Tags Finance
// @Produce text/csv
// @Param period query string true "Period (YYYY-MM)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /transactions/export [get]
func (h *FinanceHandler) ExportTransactions(c *gin.Context) {
	data, err := h.service.ExportTransactions(c.Request.Context(), tenantFromContext(c), c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=transactions.csv")
	c.Data(http.StatusOK, "text/csv", data)
}

// Summary godoc
// @Summary Finance summary
// @Description Income and expense totals, served from cache when fresh
// @Tags Finance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /finance/summary [get]
func (h *FinanceHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}
