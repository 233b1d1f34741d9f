package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusys-dev/campus-core-api/internal/middleware"
	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/service"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
)

type billingServiceMock struct {
	generateResp *models.BatchResult
	generateErr  error
	listResp     []models.InvoiceView
	listErr      error
	payResp      *models.TuitionInvoice
	payErr       error
	receiptResp  []byte
	receiptErr   error
	lastTenant   string
	lastPeriod   string
	lastFilter   models.InvoiceFilter
	payCalled    bool
}

func (m *billingServiceMock) GenerateMonthlyInvoices(ctx context.Context, tenantID, period string) (*models.BatchResult, error) {
	m.lastTenant = tenantID
	m.lastPeriod = period
	return m.generateResp, m.generateErr
}

func (m *billingServiceMock) List(ctx context.Context, tenantID string, filter models.InvoiceFilter) ([]models.InvoiceView, int, error) {
	m.lastTenant = tenantID
	m.lastFilter = filter
	return m.listResp, len(m.listResp), m.listErr
}

func (m *billingServiceMock) ApplyPayment(ctx context.Context, tenantID, invoiceID string, req service.PayInvoiceRequest) (*models.TuitionInvoice, error) {
	m.payCalled = true
	m.lastTenant = tenantID
	return m.payResp, m.payErr
}

func (m *billingServiceMock) Receipt(ctx context.Context, tenantID, invoiceID string) ([]byte, error) {
	return m.receiptResp, m.receiptErr
}

func financeContext(w *httptest.ResponseRecorder) (*gin.Context, *models.JWTClaims) {
	c, _ := gin.CreateTestContext(w)
	claims := &models.JWTClaims{UserID: "user-1", TenantID: "t1", Role: models.RoleFinance}
	c.Set(middleware.ContextUserKey, claims)
	return c, claims
}

func TestBillingHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &billingServiceMock{generateResp: &models.BatchResult{Created: 3, Skipped: 1}}
	handler := NewBillingHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := financeContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/invoices/generate", bytes.NewBufferString(`{"period":"2026-03"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", mockSvc.lastTenant)
	assert.Equal(t, "2026-03", mockSvc.lastPeriod)
}

func TestBillingHandlerGenerateMissingPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBillingHandler(&billingServiceMock{})

	w := httptest.NewRecorder()
	c, _ := financeContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/invoices/generate", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBillingHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &billingServiceMock{listResp: []models.InvoiceView{
		{TuitionInvoice: models.TuitionInvoice{ID: "inv-1", Amount: decimal.NewFromInt(1000)}},
	}}
	handler := NewBillingHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := financeContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/invoices?period=2026-03&status=PENDING&page=2&page_size=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-03", mockSvc.lastFilter.Period)
	assert.Equal(t, models.InvoiceStatusPending, mockSvc.lastFilter.Status)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}

func TestBillingHandlerPayConflictStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &billingServiceMock{payErr: appErrors.Clone(appErrors.ErrInvalidState, "invoice already paid")}
	handler := NewBillingHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := financeContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/invoices/inv-1/pay", bytes.NewBufferString(`{"account_id":"acc1","category_id":"cat1"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "inv-1"}}

	handler.Pay(c)
	require.Equal(t, appErrors.ErrInvalidState.Status, w.Code)
	assert.True(t, mockSvc.payCalled)
}

func TestBillingHandlerPayInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &billingServiceMock{}
	handler := NewBillingHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := financeContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/invoices/inv-1/pay", bytes.NewBufferString(`{"account_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Pay(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.payCalled)
}

func TestBillingHandlerReceipt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &billingServiceMock{receiptResp: []byte("%PDF-1.4")}
	handler := NewBillingHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := financeContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/invoices/inv-1/receipt", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "inv-1"}}

	handler.Receipt(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt.pdf")
}
