// Package stock provides the batch stock ledger.
package stock

import (
	"fmt"
	"strings"
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/types"
)

var maxGSTPercent = types.FromInt(100)

// BatchKey identifies a batch: one received lot of a product.
type BatchKey struct {
	ProductName string `json:"productName"`
	BatchID     string `json:"batchId"`
}

// String renders the key for logs and error details.
func (k BatchKey) String() string {
	return fmt.Sprintf("%s/%s", k.ProductName, k.BatchID)
}

// Validate checks that both parts of the key are present.
func (k BatchKey) Validate() error {
	if strings.TrimSpace(k.ProductName) == "" {
		return apperror.NewValidation("product name is required").
			WithDetail("field", "productName")
	}
	if strings.TrimSpace(k.BatchID) == "" {
		return apperror.NewValidation("batch id is required").
			WithDetail("field", "batchId")
	}
	return nil
}

// Batch is the ledger row for one batch. Quantity is only changed through Service.
type Batch struct {
	ProductName string      `db:"product_name" json:"productName"`
	BatchID     string      `db:"batch_id" json:"batchId"`
	Packing     string      `db:"packing" json:"packing"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	MRP         types.Money `db:"mrp" json:"mrp"`
	GSTPercent  types.Money `db:"gst_percent" json:"gstPercent"`
	ExpiryDate  *time.Time  `db:"expiry_date" json:"expiryDate,omitempty"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// Key returns the batch identity.
func (b Batch) Key() BatchKey {
	return BatchKey{ProductName: b.ProductName, BatchID: b.BatchID}
}
