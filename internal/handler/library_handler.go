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

type libraryService interface {
	Borrow(ctx context.Context, tenantID string, req service.BorrowRequest) (*models.Loan, error)
	Return(ctx context.Context, tenantID, loanID string) (*models.Loan, error)
}

// LibraryHandler exposes book loan endpoints.
type LibraryHandler struct {
	service libraryService
}

// NewLibraryHandler creates a new handler.
func NewLibraryHandler(svc libraryService) *LibraryHandler {
	return &LibraryHandler{service: svc}
}

// Borrow godoc
// @Summary Borrow a book copy
// @Description Opens a loan, failing with a conflict when no copy is available
// @Tags Library
// @Accept json
// @Produce json
// @Param payload body service.BorrowRequest true "Loan payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /loans [post]
func (h *LibraryHandler) Borrow(c *gin.Context) {
	var req service.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid loan payload"))
		return
	}

	loan, err := h.service.Borrow(c.Request.Context(), tenantFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, loan)
}

// Return godoc
// @Summary Return a borrowed copy
// @Description Closes an active loan and restores availability
// @Tags Library
// @Produce json
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /loans/{id}/return [post]
func (h *LibraryHandler) Return(c *gin.Context) {
	loan, err := h.service.Return(c.Request.Context(), tenantFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, loan, nil)
}
