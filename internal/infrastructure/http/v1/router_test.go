package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/pricing"
	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/domain/registers/stock"
	"pharmapos/internal/infrastructure/http/v1/dto"
	"pharmapos/internal/infrastructure/http/v1/handlers"
	"pharmapos/internal/infrastructure/storage/memory"
	"pharmapos/pkg/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store := memory.New()
	stockSvc := stock.NewService(store.Stock())
	loyaltySvc := loyalty.NewService(store.Loyalty(), loyalty.DefaultRules())
	saleSvc := sale.NewService(sale.Deps{
		Repo:      store.Sales(),
		Stock:     stockSvc,
		Loyalty:   loyaltySvc,
		Pricing:   pricing.NewCalculator(pricing.DefaultPolicy()),
		Numerator: store,
		TxManager: store,
		Events:    store,
		Audit:     store,
	}, sale.DefaultConfig())

	router, err := NewRouter(RouterConfig{
		Logger:  logger.NewNop(),
		Pinger:  store,
		Storage: "memory",
		Version: "test",
		Sales:   saleSvc,
		Stock:   stockSvc,
		Loyalty: loyaltySvc,
	})
	require.NoError(t, err)
	return router
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func receive(t *testing.T, r http.Handler, qty int64) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/stock/receipts", dto.ReceiveStockRequest{
		ProductName: "Paracetamol",
		BatchID:     "B-17",
		Packing:     "10 tabs",
		Quantity:    qty,
		MRP:         "100",
		GSTPercent:  "0",
		ExpiryDate:  "2030-01-01",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func saleBody(qty int64) dto.SaleRequest {
	return dto.SaleRequest{
		Customer: dto.CustomerRequest{Name: "Ravi", Contact: "9876543210"},
		Items: []dto.SaleItemRequest{{
			ProductName: "Paracetamol",
			BatchID:     "B-17",
			Quantity:    qty,
			MRP:         "100",
			GSTPercent:  "0",
		}},
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestFinalize_CommitThenReplay(t *testing.T) {
	r := newTestRouter(t)
	receive(t, r, 10)

	headers := map[string]string{
		handlers.HeaderIdempotencyKey: "till-1-0001",
		"X-Operator":                  "counter-1",
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", saleBody(3), headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var first dto.SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, "300.00", first.TotalAmount)
	assert.Equal(t, int64(3), first.PointsEarned)
	assert.Equal(t, "counter-1", first.CreatedBy)
	assert.NotEmpty(t, first.Number)
	assert.False(t, first.Replayed)

	w = doJSON(t, r, http.MethodPost, "/api/v1/sales", saleBody(3), headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var replay dto.SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replay))
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.ID, replay.ID)

	// Stock moved once.
	w = doJSON(t, r, http.MethodGet, "/api/v1/stock/batches/Paracetamol/B-17", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var batch dto.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, int64(7), batch.Quantity)

	w = doJSON(t, r, http.MethodGet, "/api/v1/sales/"+first.Number, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/sales/by-id/"+first.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/sales/by-id/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/customers/9876543210", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cust dto.CustomerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cust))
	assert.Equal(t, int64(3), cust.Points)
}

func TestFinalize_SameKeyDifferentBody(t *testing.T) {
	r := newTestRouter(t)
	receive(t, r, 10)

	headers := map[string]string{handlers.HeaderIdempotencyKey: "till-1-0002"}

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", saleBody(1), headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/v1/sales", saleBody(2), headers)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeIdempotency, decodeError(t, w).Code)
}

func TestFinalize_InsufficientStock(t *testing.T) {
	r := newTestRouter(t)
	receive(t, r, 2)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", saleBody(3), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, apperror.CodeInsufficientStock, resp.Code)
	assert.EqualValues(t, 1, resp.Details["shortfall"])
}

func TestFinalize_BelowMinimumRedemption(t *testing.T) {
	r := newTestRouter(t)
	receive(t, r, 10)

	body := saleBody(1)
	body.RedeemedPoints = 30

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", body, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeBelowMinimumRedemption, decodeError(t, w).Code)
}

func TestQuote_HasNoSideEffects(t *testing.T) {
	r := newTestRouter(t)
	receive(t, r, 10)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales/quote", saleBody(4), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var quote dto.SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.Equal(t, "400.00", quote.TotalAmount)
	assert.Empty(t, quote.Number)

	w = doJSON(t, r, http.MethodGet, "/api/v1/stock/batches/Paracetamol/B-17", nil, nil)
	var batch dto.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, int64(10), batch.Quantity)
}

func TestReceive_RejectsNegativeMoney(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/stock/receipts", dto.ReceiveStockRequest{
		ProductName: "Paracetamol",
		BatchID:     "B-17",
		Quantity:    5,
		MRP:         "-1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeError(t, w)
	assert.Equal(t, apperror.CodeValidation, resp.Code)
	assert.Equal(t, "mrp", resp.Details["field"])
	assert.Equal(t, "money", resp.Details["rule"])
}

func TestStockMovements(t *testing.T) {
	r := newTestRouter(t)
	receive(t, r, 10)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", saleBody(4), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/v1/stock/batches/Paracetamol/B-17/movements?limit=10", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var ms []dto.StockMovementResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ms))
	require.Len(t, ms, 2)
	assert.Equal(t, int64(6), ms[0].BalanceAfter)
	assert.Equal(t, "expense", ms[0].RecordType)
}

func TestSaleHistory(t *testing.T) {
	r := newTestRouter(t)
	receive(t, r, 10)

	w := doJSON(t, r, http.MethodPost, "/api/v1/sales", saleBody(2), map[string]string{"X-Operator": "counter-2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created dto.SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodGet, "/api/v1/sales/by-id/"+created.ID+"/audit?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var entries []dto.AuditEntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "commit", entries[0].Action)
	assert.Equal(t, "counter-2", entries[0].Operator)
	assert.Equal(t, created.Number, entries[0].Changes["number"])

	w = doJSON(t, r, http.MethodGet, "/api/v1/sales/by-id/"+id.New().String()+"/audit", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/sales/by-id/"+created.ID+"/audit?limit=0", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/sales/by-id/"+created.ID+"/audit?limit=501", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomer_EnrollAndNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/customers/5550001", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decodeError(t, w).Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/customers", dto.EnrollCustomerRequest{Name: "Meera", Contact: "5550001"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/v1/customers/5550001", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
