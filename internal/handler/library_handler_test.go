package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-dev/campus-core-api/internal/middleware"
	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/service"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
)

type libraryServiceMock struct {
	borrowResp *models.Loan
	borrowErr  error
	returnResp *models.Loan
	returnErr  error
	lastLoanID string
	lastReq    service.BorrowRequest
}

func (m *libraryServiceMock) Borrow(ctx context.Context, tenantID string, req service.BorrowRequest) (*models.Loan, error) {
	m.lastReq = req
	return m.borrowResp, m.borrowErr
}

func (m *libraryServiceMock) Return(ctx context.Context, tenantID, loanID string) (*models.Loan, error) {
	m.lastLoanID = loanID
	return m.returnResp, m.returnErr
}

func studentContext(w *httptest.ResponseRecorder) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", TenantID: "t1", Role: models.RoleStudent})
	return c
}

func TestLibraryHandlerBorrowCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &libraryServiceMock{borrowResp: &models.Loan{ID: "loan-1", Status: models.LoanStatusActive}}
	handler := NewLibraryHandler(mockSvc)

	w := httptest.NewRecorder()
	c := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/loans", bytes.NewBufferString(`{"book_id":"b1","student_id":"stu1"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Borrow(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "b1", mockSvc.lastReq.BookID)
}

func TestLibraryHandlerBorrowConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &libraryServiceMock{borrowErr: appErrors.Clone(appErrors.ErrConflict, "no copies available")}
	handler := NewLibraryHandler(mockSvc)

	w := httptest.NewRecorder()
	c := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/loans", bytes.NewBufferString(`{"book_id":"b1","student_id":"stu1"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Borrow(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLibraryHandlerBorrowInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewLibraryHandler(&libraryServiceMock{})

	w := httptest.NewRecorder()
	c := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/loans", bytes.NewBufferString(`{"book_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Borrow(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLibraryHandlerReturn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &libraryServiceMock{returnResp: &models.Loan{ID: "loan-1", Status: models.LoanStatusReturned}}
	handler := NewLibraryHandler(mockSvc)

	w := httptest.NewRecorder()
	c := studentContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/loans/loan-1/return", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "loan-1"}}

	handler.Return(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "loan-1", mockSvc.lastLoanID)
}
