// Package entity provides core domain entities.
package entity

import (
	"time"

	"pharmapos/internal/core/id"
)

// RecordType defines movement direction for ledger journals.
type RecordType string

const (
	// RecordTypeReceipt increases balance
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases balance
	RecordTypeExpense RecordType = "expense"
)

// MovementBase contains common fields for all ledger movements.
// Movements are append-only: a reversal is a new movement, never an update.
type MovementBase struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that caused this movement (the sale, or
	// the receipt for purchase intake).
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type, e.g. "Sale" or "PurchaseReceipt".
	RecorderType string `db:"recorder_type" json:"recorderType"`

	RecordType RecordType `db:"record_type" json:"recordType"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Recorder identifies the document on whose behalf a ledger is mutated.
type Recorder struct {
	ID   id.ID
	Type string
}

// NewMovementBase creates a new movement base with generated LineID.
func NewMovementBase(recorder Recorder, recordType RecordType) MovementBase {
	return MovementBase{
		LineID:       id.New(),
		RecorderID:   recorder.ID,
		RecorderType: recorder.Type,
		RecordType:   recordType,
		CreatedAt:    time.Now().UTC(),
	}
}

// StockMovement is one journal row of the batch stock ledger.
type StockMovement struct {
	MovementBase

	// Dimensions
	ProductName string `db:"product_name" json:"productName"`
	BatchID     string `db:"batch_id" json:"batchId"`

	// Resources
	Quantity     int64 `db:"quantity" json:"quantity"`
	BalanceAfter int64 `db:"balance_after" json:"balanceAfter"`
}

// NewStockMovement creates a new stock movement. BalanceAfter is filled by the store.
func NewStockMovement(recorder Recorder, recordType RecordType, productName, batchID string, quantity int64) StockMovement {
	return StockMovement{
		MovementBase: NewMovementBase(recorder, recordType),
		ProductName:  productName,
		BatchID:      batchID,
		Quantity:     quantity,
	}
}

// PointsReason explains why a loyalty balance moved.
type PointsReason string

const (
	PointsRedeem  PointsReason = "redeem"
	PointsAccrue  PointsReason = "accrue"
	PointsRestore PointsReason = "restore" // undo of redeem
	PointsReverse PointsReason = "reverse" // undo of accrue
)

// RecordType maps the reason onto the journal direction.
func (r PointsReason) RecordType() RecordType {
	switch r {
	case PointsRedeem, PointsReverse:
		return RecordTypeExpense
	default:
		return RecordTypeReceipt
	}
}

// PointsMovement is one journal row of the loyalty ledger.
type PointsMovement struct {
	MovementBase

	CustomerContact string       `db:"customer_contact" json:"customerContact"`
	Reason          PointsReason `db:"reason" json:"reason"`
	Points          int64        `db:"points" json:"points"`
	BalanceAfter    int64        `db:"balance_after" json:"balanceAfter"`
}

// NewPointsMovement creates a loyalty journal row. BalanceAfter is filled by the store.
func NewPointsMovement(recorder Recorder, contact string, reason PointsReason, points int64) PointsMovement {
	return PointsMovement{
		MovementBase:    NewMovementBase(recorder, reason.RecordType()),
		CustomerContact: contact,
		Reason:          reason,
		Points:          points,
	}
}
