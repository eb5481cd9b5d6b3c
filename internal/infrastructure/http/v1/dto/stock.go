package dto

import (
	"time"

	"pharmapos/internal/core/entity"
	"pharmapos/internal/domain/registers/stock"
)

// ReceiveStockRequest credits a batch on purchase intake.
type ReceiveStockRequest struct {
	ProductName string `json:"productName" binding:"required"`
	BatchID     string `json:"batchId" binding:"required"`
	Packing     string `json:"packing"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
	MRP         string `json:"mrp" binding:"required,money"`
	GSTPercent  string `json:"gstPercent" binding:"omitempty,money"`
	ExpiryDate  string `json:"expiryDate"`
}

// ToBatch converts the request to the batch attributes to store.
func (r ReceiveStockRequest) ToBatch() (stock.Batch, error) {
	mrp, err := parseMoney("mrp", r.MRP)
	if err != nil {
		return stock.Batch{}, err
	}
	gst, err := parseMoney("gstPercent", r.GSTPercent)
	if err != nil {
		return stock.Batch{}, err
	}
	expiry, err := parseDate("expiryDate", r.ExpiryDate)
	if err != nil {
		return stock.Batch{}, err
	}
	return stock.Batch{
		ProductName: r.ProductName,
		BatchID:     r.BatchID,
		Packing:     r.Packing,
		MRP:         mrp,
		GSTPercent:  gst,
		ExpiryDate:  expiry,
	}, nil
}

// BatchResponse is a batch with its current quantity.
type BatchResponse struct {
	ProductName string    `json:"productName"`
	BatchID     string    `json:"batchId"`
	Packing     string    `json:"packing,omitempty"`
	Quantity    int64     `json:"quantity"`
	MRP         string    `json:"mrp"`
	GSTPercent  string    `json:"gstPercent"`
	ExpiryDate  string    `json:"expiryDate,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromBatch builds the response for b.
func FromBatch(b stock.Batch) BatchResponse {
	return BatchResponse{
		ProductName: b.ProductName,
		BatchID:     b.BatchID,
		Packing:     b.Packing,
		Quantity:    b.Quantity,
		MRP:         formatMoney(b.MRP),
		GSTPercent:  b.GSTPercent.String(),
		ExpiryDate:  formatDate(b.ExpiryDate),
		UpdatedAt:   b.UpdatedAt,
	}
}

// StockMovementResponse is one journal row.
type StockMovementResponse struct {
	LineID       string    `json:"lineId"`
	RecorderID   string    `json:"recorderId"`
	RecorderType string    `json:"recorderType"`
	RecordType   string    `json:"recordType"`
	Quantity     int64     `json:"quantity"`
	BalanceAfter int64     `json:"balanceAfter"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromStockMovements builds the journal response.
func FromStockMovements(ms []entity.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, StockMovementResponse{
			LineID:       m.LineID.String(),
			RecorderID:   m.RecorderID.String(),
			RecorderType: m.RecorderType,
			RecordType:   string(m.RecordType),
			Quantity:     m.Quantity,
			BalanceAfter: m.BalanceAfter,
			CreatedAt:    m.CreatedAt,
		})
	}
	return out
}
