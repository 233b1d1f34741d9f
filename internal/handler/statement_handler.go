package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusys-dev/campus-core-api/internal/service"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
	"github.com/edusys-dev/campus-core-api/pkg/response"
)

// StatementHandler exposes asynchronous statement generation endpoints.
type StatementHandler struct {
	service *service.StatementService
}

// NewStatementHandler creates a new handler.
func NewStatementHandler(svc *service.StatementService) *StatementHandler {
	return &StatementHandler{service: svc}
}

// Request godoc
// @Summary Request a monthly statement
// @Description Queues asynchronous generation of the tenant's financial statement
// @Tags Statements
// @Accept json
// @Produce json
// @Param payload body object true "Period payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /statements [post]
func (h *StatementHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Period string `json:"period" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "period required"))
		return
	}

	statement, err := h.service.Request(c.Request.Context(), claims.TenantID, payload.Period, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, statement, nil)
}

// Get godoc
// @Summary Get statement status
// @Tags Statements
// @Produce json
// @Param id path string true "Statement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /statements/{id} [get]
func (h *StatementHandler) Get(c *gin.Context) {
	statement, err := h.service.Get(c.Request.Context(), tenantFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, statement, nil)
}

// DownloadToken godoc
// @Summary Issue a signed download token
// @Description Returns a signed token for downloading a finished statement
// @Tags Statements
// @Produce json
// @Param id path string true "Statement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /statements/{id}/download-token [post]
func (h *StatementHandler) DownloadToken(c *gin.Context) {
	download, err := h.service.DownloadToken(c.Request.Context(), tenantFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, download, nil)
}

// Download godoc
// @Summary Download a statement file
// @Description Serves the statement PDF referenced by a signed token
// @Tags Statements
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /statements/download [get]
func (h *StatementHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}

	path, err := h.service.ResolveToken(token)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=statement.pdf")
	c.File(path)
}
