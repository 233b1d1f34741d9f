package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/service"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
	"github.com/edusys-dev/campus-core-api/pkg/response"
)

// PayrollHandler exposes payroll batch and settlement endpoints.
type PayrollHandler struct {
	service *service.PayrollService
}

// NewPayrollHandler creates a new handler.
func NewPayrollHandler(svc *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{service: svc}
}

// Generate godoc
// @Summary Generate monthly payroll
// @Description Creates one pending entry at base salary per active employee; safe to re-run
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body object true "Period payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payroll/generate [post]
func (h *PayrollHandler) Generate(c *gin.Context) {
	var payload struct {
		Period string `json:"period" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "period required"))
		return
	}

	result, err := h.service.GenerateMonthly(c.Request.Context(), tenantFromContext(c), payload.Period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List payroll entries
// @Tags Payroll
// @Produce json
// @Param employee_id query string false "Employee filter"
// @Param period query string false "Period filter (YYYY-MM)"
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payroll [get]
func (h *PayrollHandler) List(c *gin.Context) {
	filter := models.PayrollFilter{
		EmployeeID: c.Query("employee_id"),
		Period:     c.Query("period"),
		Status:     models.PayrollStatus(c.Query("status")),
		Page:       intQuery(c, "page", 1),
		PageSize:   intQuery(c, "page_size", 20),
	}

	entries, total, err := h.service.List(c.Request.Context(), tenantFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Pay godoc
// @Summary Settle a payroll entry
// @Description Marks the entry paid and posts the expense transaction
// @Tags Payroll
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body service.PayPayrollRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payroll/{id}/pay [post]
func (h *PayrollHandler) Pay(c *gin.Context) {
	var req service.PayPayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}

	entry, err := h.service.ProcessPayment(c.Request.Context(), tenantFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entry, nil)
}
