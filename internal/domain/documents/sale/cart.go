package sale

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"pharmapos/internal/core/types"
)

// Cart is the finalization request as sent by the counter.
//
// MRP, GSTPercent, Packing and ExpiryDate are accepted for display parity
// but the ledger's values are used for pricing.
type Cart struct {
	IdempotencyKey string           `json:"-"`
	InvoiceNumber  string           `json:"invoiceNumber,omitempty"`
	Customer       CustomerSnapshot `json:"customer"`
	Items          []CartItem       `json:"items"`
	PaymentType    PaymentType      `json:"paymentType"`
	RedeemedPoints int64            `json:"redeemedPoints"`
}

// CartItem is a raw line as entered at the counter.
type CartItem struct {
	ProductName string      `json:"productName"`
	BatchID     string      `json:"batchId"`
	Packing     string      `json:"packing,omitempty"`
	Quantity    int64       `json:"quantity"`
	MRP         types.Money `json:"mrp"`
	GSTPercent  types.Money `json:"gstPercent"`
	Discount    types.Money `json:"discount"`
	ExpiryDate  *time.Time  `json:"expiryDate,omitempty"`
}

// Normalize trims identifiers and defaults the payment type to cash.
func (c Cart) Normalize() Cart {
	out := c
	out.IdempotencyKey = strings.TrimSpace(c.IdempotencyKey)
	out.InvoiceNumber = strings.TrimSpace(c.InvoiceNumber)
	out.Customer = CustomerSnapshot{
		Name:    strings.TrimSpace(c.Customer.Name),
		Contact: strings.TrimSpace(c.Customer.Contact),
		Email:   strings.TrimSpace(c.Customer.Email),
	}
	if out.PaymentType == "" {
		out.PaymentType = PaymentCash
	}
	out.PaymentType = PaymentType(strings.ToLower(string(out.PaymentType)))

	out.Items = make([]CartItem, len(c.Items))
	for i, it := range c.Items {
		it.ProductName = strings.TrimSpace(it.ProductName)
		it.BatchID = strings.TrimSpace(it.BatchID)
		out.Items[i] = it
	}
	return out
}

// EffectiveIdempotencyKey is the explicit key, or one derived from a
// client-assigned invoice number, or empty.
func (c Cart) EffectiveIdempotencyKey() string {
	if c.IdempotencyKey != "" {
		return c.IdempotencyKey
	}
	if c.InvoiceNumber != "" {
		return "invoice:" + c.InvoiceNumber
	}
	return ""
}

// Hash fingerprints the request so a reused idempotency key with a
// different body can be told apart from a retry.
func (c Cart) Hash() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
