package dto

import (
	"fmt"
	"time"

	"pharmapos/internal/domain/audit"
	"pharmapos/internal/domain/documents/sale"
)

// --- Requests ---

// CustomerRequest identifies the buyer. An empty contact is a walk-in sale.
type CustomerRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email" binding:"omitempty,email"`
}

// SaleItemRequest is one cart line.
type SaleItemRequest struct {
	ProductName string `json:"productName"`
	BatchID     string `json:"batchId"`
	Packing     string `json:"packing"`
	Quantity    int64  `json:"quantity"`
	MRP         string `json:"mrp" binding:"omitempty,money"`
	GSTPercent  string `json:"gstPercent" binding:"omitempty,money"`
	Discount    string `json:"discount" binding:"omitempty,money"`
	ExpiryDate  string `json:"expiryDate"`
}

// SaleRequest is the body of finalize and quote.
type SaleRequest struct {
	IdempotencyKey string            `json:"idempotencyKey"`
	InvoiceNumber  string            `json:"invoiceNumber"`
	Customer       CustomerRequest   `json:"customer"`
	Items          []SaleItemRequest `json:"items" binding:"dive"`
	PaymentType    string            `json:"paymentType"`
	RedeemedPoints int64             `json:"redeemedPoints"`
}

// ToCart converts the request to a domain cart.
func (r SaleRequest) ToCart() (sale.Cart, error) {
	cart := sale.Cart{
		IdempotencyKey: r.IdempotencyKey,
		InvoiceNumber:  r.InvoiceNumber,
		Customer: sale.CustomerSnapshot{
			Name:    r.Customer.Name,
			Contact: r.Customer.Contact,
			Email:   r.Customer.Email,
		},
		PaymentType:    sale.PaymentType(r.PaymentType),
		RedeemedPoints: r.RedeemedPoints,
		Items:          make([]sale.CartItem, 0, len(r.Items)),
	}

	for i, it := range r.Items {
		prefix := fmt.Sprintf("items[%d].", i)

		mrp, err := parseMoney(prefix+"mrp", it.MRP)
		if err != nil {
			return sale.Cart{}, err
		}
		gst, err := parseMoney(prefix+"gstPercent", it.GSTPercent)
		if err != nil {
			return sale.Cart{}, err
		}
		discount, err := parseMoney(prefix+"discount", it.Discount)
		if err != nil {
			return sale.Cart{}, err
		}
		expiry, err := parseDate(prefix+"expiryDate", it.ExpiryDate)
		if err != nil {
			return sale.Cart{}, err
		}

		cart.Items = append(cart.Items, sale.CartItem{
			ProductName: it.ProductName,
			BatchID:     it.BatchID,
			Packing:     it.Packing,
			Quantity:    it.Quantity,
			MRP:         mrp,
			GSTPercent:  gst,
			Discount:    discount,
			ExpiryDate:  expiry,
		})
	}
	return cart, nil
}

// --- Responses ---

// SaleLineResponse is one priced line.
type SaleLineResponse struct {
	LineNo          int    `json:"lineNo"`
	ProductName     string `json:"productName"`
	BatchID         string `json:"batchId"`
	Packing         string `json:"packing,omitempty"`
	Quantity        int64  `json:"quantity"`
	MRP             string `json:"mrp"`
	GSTPercent      string `json:"gstPercent"`
	DiscountPerUnit string `json:"discountPerUnit"`
	ExpiryDiscount  bool   `json:"expiryDiscount"`
	ExpiryDate      string `json:"expiryDate,omitempty"`
	GSTAmount       string `json:"gstAmount"`
	LineTotal       string `json:"lineTotal"`
}

// SaleResponse is a committed or quoted sale.
type SaleResponse struct {
	ID                 string             `json:"id"`
	Number             string             `json:"number,omitempty"`
	Date               time.Time          `json:"date"`
	CreatedBy          string             `json:"createdBy,omitempty"`
	Customer           CustomerRequest    `json:"customer"`
	PaymentType        string             `json:"paymentType"`
	Items              []SaleLineResponse `json:"items"`
	Subtotal           string             `json:"subtotal"`
	ItemDiscount       string             `json:"itemDiscount"`
	RedemptionDiscount string             `json:"redemptionDiscount"`
	TotalDiscount      string             `json:"totalDiscount"`
	GSTTotal           string             `json:"gstTotal"`
	TotalAmount        string             `json:"totalAmount"`
	RedeemedPoints     int64              `json:"redeemedPoints"`
	PointsEarned       int64              `json:"pointsEarned"`
	Replayed           bool               `json:"replayed,omitempty"`
}

// FromSale builds the response for s.
func FromSale(s *sale.Sale) SaleResponse {
	resp := SaleResponse{
		ID:        s.ID.String(),
		Number:    s.Number,
		Date:      s.Date,
		CreatedBy: s.CreatedBy,
		Customer: CustomerRequest{
			Name:    s.Customer.Name,
			Contact: s.Customer.Contact,
			Email:   s.Customer.Email,
		},
		PaymentType:        string(s.PaymentType),
		Items:              make([]SaleLineResponse, 0, len(s.Items)),
		Subtotal:           formatMoney(s.Subtotal),
		ItemDiscount:       formatMoney(s.ItemDiscount),
		RedemptionDiscount: formatMoney(s.RedemptionDiscount),
		TotalDiscount:      formatMoney(s.TotalDiscount),
		GSTTotal:           formatMoney(s.GSTTotal),
		TotalAmount:        formatMoney(s.TotalAmount),
		RedeemedPoints:     s.RedeemedPoints,
		PointsEarned:       s.PointsEarned,
	}
	for _, l := range s.Items {
		resp.Items = append(resp.Items, SaleLineResponse{
			LineNo:          l.LineNo,
			ProductName:     l.ProductName,
			BatchID:         l.BatchID,
			Packing:         l.Packing,
			Quantity:        l.Quantity,
			MRP:             formatMoney(l.MRP),
			GSTPercent:      l.GSTPercent.String(),
			DiscountPerUnit: formatMoney(l.DiscountPerUnit),
			ExpiryDiscount:  l.ExpiryDiscount,
			ExpiryDate:      formatDate(l.ExpiryDateAtSale),
			GSTAmount:       formatMoney(l.GSTAmount),
			LineTotal:       formatMoney(l.LineTotal),
		})
	}
	return resp
}

// FromResult builds the finalize response.
func FromResult(res *sale.Result) SaleResponse {
	resp := FromSale(res.Sale)
	resp.Replayed = res.Replayed
	return resp
}

// AuditEntryResponse is one audit trail row of a sale.
type AuditEntryResponse struct {
	Action    string         `json:"action"`
	Operator  string         `json:"operator,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	At        time.Time      `json:"at"`
}

// FromAuditEntries builds the audit trail response.
func FromAuditEntries(es []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(es))
	for _, e := range es {
		out = append(out, AuditEntryResponse{
			Action:    string(e.Action),
			Operator:  e.Operator,
			RequestID: e.RequestID,
			Changes:   e.Changes,
			At:        e.At,
		})
	}
	return out
}
