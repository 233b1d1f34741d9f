package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/service"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
	"github.com/edusys-dev/campus-core-api/pkg/response"
)

type billingService interface {
	GenerateMonthlyInvoices(ctx context.Context, tenantID, period string) (*models.BatchResult, error)
	List(ctx context.Context, tenantID string, filter models.InvoiceFilter) ([]models.InvoiceView, int, error)
	ApplyPayment(ctx context.Context, tenantID, invoiceID string, req service.PayInvoiceRequest) (*models.TuitionInvoice, error)
	Receipt(ctx context.Context, tenantID, invoiceID string) ([]byte, error)
}

// BillingHandler exposes the tuition invoice lifecycle endpoints.
type BillingHandler struct {
	service billingService
}

// NewBillingHandler creates a new handler.
func NewBillingHandler(svc billingService) *BillingHandler {
	return &BillingHandler{service: svc}
}

// Generate godoc
// @Summary Generate monthly invoices
// @Description Creates one pending invoice per active enrollment for the period; safe to re-run
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body object true "Period payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /invoices/generate [post]
func (h *BillingHandler) Generate(c *gin.Context) {
	var payload struct {
		Period string `json:"period" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "period required"))
		return
	}

	result, err := h.service.GenerateMonthlyInvoices(c.Request.Context(), tenantFromContext(c), payload.Period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List invoices
// @Description Lists invoices with the late fee projected at request time
// @Tags Billing
// @Produce json
// @Param student_id query string false "Student filter"
// @Param course_id query string false "Course filter"
// @Param period query string false "Period filter (YYYY-MM)"
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /invoices [get]
func (h *BillingHandler) List(c *gin.Context) {
	filter := models.InvoiceFilter{
		StudentID: c.Query("student_id"),
		CourseID:  c.Query("course_id"),
		Period:    c.Query("period"),
		Status:    models.InvoiceStatus(c.Query("status")),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 20),
	}

	views, total, err := h.service.List(c.Request.Context(), tenantFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Pay godoc
// @Summary Pay an invoice
// @Description Applies a payment, freezing the late fee and posting the income transaction
// @Tags Billing
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payload body service.PayInvoiceRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /invoices/{id}/pay [post]
func (h *BillingHandler) Pay(c *gin.Context) {
	var req service.PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}

	invoice, err := h.service.ApplyPayment(c.Request.Context(), tenantFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, invoice, nil)
}

// Receipt godoc
// @Summary Download a payment receipt
// @Description Renders a PDF receipt for a paid invoice
// @Tags Billing
// @Produce application/pdf
// @Param id path string true "Invoice ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /invoices/{id}/receipt [get]
func (h *BillingHandler) Receipt(c *gin.Context) {
	data, err := h.service.Receipt(c.Request.Context(), tenantFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=receipt.pdf")
	c.Data(http.StatusOK, "application/pdf", data)
}
