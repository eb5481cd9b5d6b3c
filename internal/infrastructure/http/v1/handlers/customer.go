package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles loyalty accounts.
type CustomerHandler struct {
	*BaseHandler
	service *loyalty.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *loyalty.Service) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, service: service}
}

// Get returns the customer and balance.
// GET /customers/:contact
func (h *CustomerHandler) Get(c *gin.Context) {
	cust, err := h.service.Get(c.Request.Context(), c.Param("contact"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCustomer(cust))
}

// GetMovements returns the points journal, newest first.
// GET /customers/:contact/movements?limit=
func (h *CustomerHandler) GetMovements(c *gin.Context) {
	var q dto.LimitQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Defaults()

	ms, err := h.service.Movements(c.Request.Context(), c.Param("contact"), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPointsMovements(ms))
}

// Enroll opens an account, or returns the existing one unchanged.
// POST /customers
func (h *CustomerHandler) Enroll(c *gin.Context) {
	var req dto.EnrollCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust, err := h.service.Enroll(c.Request.Context(), req.ToProfile())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCustomer(cust))
}
