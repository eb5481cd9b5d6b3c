package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/infrastructure/http/v1/dto"
)

// HeaderIdempotencyKey overrides the idempotency key of the request body.
const HeaderIdempotencyKey = "X-Idempotency-Key"

// SaleHandler handles sale finalization.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Finalize commits a sale.
// POST /sales
//
// 201 on commit, 200 when the key replays an earlier commit.
func (h *SaleHandler) Finalize(c *gin.Context) {
	cart, ok := h.bindCart(c)
	if !ok {
		return
	}
	if key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)); key != "" {
		cart.IdempotencyKey = key
	}

	res, err := h.service.Finalize(c.Request.Context(), cart)
	if err != nil {
		h.Error(c, err)
		return
	}

	if res.Replayed {
		h.OK(c, dto.FromResult(res))
		return
	}
	h.Created(c, dto.FromResult(res))
}

// Quote prices a cart without touching any ledger.
// POST /sales/quote
func (h *SaleHandler) Quote(c *gin.Context) {
	cart, ok := h.bindCart(c)
	if !ok {
		return
	}

	s, err := h.service.Quote(c.Request.Context(), cart)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(s))
}

// GetByNumber returns a committed sale.
// GET /sales/:number
func (h *SaleHandler) GetByNumber(c *gin.Context) {
	s, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(s))
}

// GetByID returns a committed sale by id.
// GET /sales/by-id/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sale id").WithDetail("field", "id"))
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(s))
}

// GetHistory returns the audit trail of a sale, newest first.
// GET /sales/by-id/:id/audit?limit=
func (h *SaleHandler) GetHistory(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sale id").WithDetail("field", "id"))
		return
	}
	var q dto.LimitQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Defaults()

	entries, err := h.service.History(c.Request.Context(), saleID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAuditEntries(entries))
}

func (h *SaleHandler) bindCart(c *gin.Context) (sale.Cart, bool) {
	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return sale.Cart{}, false
	}
	cart, err := req.ToCart()
	if err != nil {
		h.Error(c, err)
		return sale.Cart{}, false
	}
	return cart, true
}
