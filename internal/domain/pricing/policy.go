// Package pricing computes line and invoice amounts for a sale.
// It performs no I/O; every input comes from the caller.
package pricing

import (
	"pharmapos/internal/core/types"
)

// Policy holds the store-wide pricing constants.
type Policy struct {
	// ExpiryWindowMonths is how close to expiry a batch must be for the
	// automatic discount.
	ExpiryWindowMonths int

	// ExpiryDiscountPercent is applied to MRP for near-expiry batches.
	ExpiryDiscountPercent types.Money
}

// DefaultPolicy gives 20% off batches expiring within 3 months.
func DefaultPolicy() Policy {
	return Policy{
		ExpiryWindowMonths:    3,
		ExpiryDiscountPercent: types.FromInt(20),
	}
}
