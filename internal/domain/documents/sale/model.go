// Package sale provides the Sale document and the finalization workflow
// that prices a cart, moves stock and loyalty points, and stores the sale.
package sale

import (
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/types"
)

// DocumentType is the recorder type written to ledger journals.
const DocumentType = "Sale"

// PaymentType is how the invoice was settled.
type PaymentType string

const (
	PaymentCash PaymentType = "cash"
	PaymentCard PaymentType = "card"
	PaymentUPI  PaymentType = "upi"
)

// Validate accepts the known payment types.
func (p PaymentType) Validate() error {
	switch p {
	case PaymentCash, PaymentCard, PaymentUPI:
		return nil
	default:
		return apperror.NewValidation("unsupported payment type").
			WithDetail("field", "paymentType").
			WithDetail("value", string(p))
	}
}

// CustomerSnapshot is the customer identity as it was at sale time.
// Later edits to the customer record do not change it.
type CustomerSnapshot struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email,omitempty"`
}

// IsWalkIn reports a sale without a loyalty account.
func (c CustomerSnapshot) IsWalkIn() bool {
	return c.Contact == ""
}

// Sale is an immutable invoice. It is written once by Service.Finalize.
type Sale struct {
	entity.Document

	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	RequestHash    string `json:"-"`

	Customer    CustomerSnapshot `json:"customer"`
	PaymentType PaymentType      `json:"paymentType"`
	Items       []LineItem       `json:"items"`

	Subtotal           types.Money `json:"subtotal"`
	ItemDiscount       types.Money `json:"itemDiscount"`
	RedemptionDiscount types.Money `json:"redemptionDiscount"`
	TotalDiscount      types.Money `json:"totalDiscount"`
	GSTTotal           types.Money `json:"gstTotal"`
	TotalAmount        types.Money `json:"totalAmount"`

	RedeemedPoints int64 `json:"redeemedPoints"`
	PointsEarned   int64 `json:"pointsEarned"`
}

// LineItem is one priced line of a sale.
type LineItem struct {
	LineNo           int         `json:"lineNo"`
	ProductName      string      `json:"productName"`
	BatchID          string      `json:"batchId"`
	Packing          string      `json:"packing"`
	Quantity         int64       `json:"quantity"`
	MRP              types.Money `json:"mrp"`
	GSTPercent       types.Money `json:"gstPercent"`
	DiscountPerUnit  types.Money `json:"discountPerUnit"`
	ExpiryDiscount   bool        `json:"expiryDiscount"`
	ExpiryDateAtSale *time.Time  `json:"expiryDateAtSale,omitempty"`
	GSTAmount        types.Money `json:"gstAmount"`
	LineTotal        types.Money `json:"lineTotal"`
}

// CommittedEvent is the outbox payload announcing a stored sale.
type CommittedEvent struct {
	SaleID          string             `json:"saleId"`
	Number          string             `json:"number"`
	Date            time.Time          `json:"date"`
	CustomerContact string             `json:"customerContact,omitempty"`
	PaymentType     PaymentType        `json:"paymentType"`
	TotalAmount     types.Money        `json:"totalAmount"`
	GSTTotal        types.Money        `json:"gstTotal"`
	RedeemedPoints  int64              `json:"redeemedPoints"`
	PointsEarned    int64              `json:"pointsEarned"`
	Items           []CommittedLineRef `json:"items"`
}

// CommittedLineRef is the stock footprint of one line.
type CommittedLineRef struct {
	ProductName string `json:"productName"`
	BatchID     string `json:"batchId"`
	Quantity    int64  `json:"quantity"`
}

// EventSaleCommitted is the outbox event type for CommittedEvent.
const EventSaleCommitted = "SaleCommitted"

func newCommittedEvent(s *Sale) CommittedEvent {
	refs := make([]CommittedLineRef, 0, len(s.Items))
	for _, it := range s.Items {
		refs = append(refs, CommittedLineRef{ProductName: it.ProductName, BatchID: it.BatchID, Quantity: it.Quantity})
	}
	return CommittedEvent{
		SaleID:          s.ID.String(),
		Number:          s.Number,
		Date:            s.Date,
		CustomerContact: s.Customer.Contact,
		PaymentType:     s.PaymentType,
		TotalAmount:     s.TotalAmount,
		GSTTotal:        s.GSTTotal,
		RedeemedPoints:  s.RedeemedPoints,
		PointsEarned:    s.PointsEarned,
		Items:           refs,
	}
}
