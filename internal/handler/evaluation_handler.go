package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusys-dev/campus-core-api/internal/service"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
	"github.com/edusys-dev/campus-core-api/pkg/response"
)

// EvaluationHandler exposes score recording and grade evaluation endpoints.
type EvaluationHandler struct {
	service *service.EvaluationService
}

// NewEvaluationHandler creates a new handler.
func NewEvaluationHandler(svc *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: svc}
}

// UpsertScore godoc
// @Summary Record an assessment score
// @Description Records or replaces one assessment score and returns the re-derived evaluation
// @Tags Evaluation
// @Accept json
// @Produce json
// @Param payload body service.UpsertScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scores [put]
func (h *EvaluationHandler) UpsertScore(c *gin.Context) {
	var req service.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}

	evaluation, err := h.service.UpsertScore(c.Request.Context(), tenantFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, evaluation, nil)
}

// Evaluate godoc
// @Summary Evaluate an enrollment
// @Description Derives the academic evaluation for one enrollment and subject from current scores
// @Tags Evaluation
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param subject_id query string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/evaluation [get]
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	enrollmentID := c.Param("id")
	subjectID := c.Query("subject_id")

	evaluation, err := h.service.EvaluateEnrollment(c.Request.Context(), tenantFromContext(c), enrollmentID, subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, evaluation, nil)
}
