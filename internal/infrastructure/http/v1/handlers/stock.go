package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/registers/stock"
	"pharmapos/internal/infrastructure/http/v1/dto"
)

// StockHandler handles the batch stock ledger endpoints.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// GetBatch returns a batch with its current quantity.
// GET /stock/batches/:product/:batch
func (h *StockHandler) GetBatch(c *gin.Context) {
	b, err := h.service.GetBatch(c.Request.Context(), batchKey(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBatch(b))
}

// GetMovements returns the batch journal, newest first.
// GET /stock/batches/:product/:batch/movements?limit=
func (h *StockHandler) GetMovements(c *gin.Context) {
	var q dto.LimitQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Defaults()

	ms, err := h.service.Movements(c.Request.Context(), batchKey(c), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStockMovements(ms))
}

// Receive credits a batch from a purchase.
// POST /stock/receipts
func (h *StockHandler) Receive(c *gin.Context) {
	var req dto.ReceiveStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	batch, err := req.ToBatch()
	if err != nil {
		h.Error(c, err)
		return
	}

	recorder := entity.Recorder{ID: id.New(), Type: stock.RecorderPurchase}
	stored, err := h.service.Receive(c.Request.Context(), batch, req.Quantity, recorder)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromBatch(stored))
}

func batchKey(c *gin.Context) stock.BatchKey {
	return stock.BatchKey{ProductName: c.Param("product"), BatchID: c.Param("batch")}
}
