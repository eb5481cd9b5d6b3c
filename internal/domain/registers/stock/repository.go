package stock

import (
	"context"

	"pharmapos/internal/core/entity"
)

// Repository persists batches and their movement journal.
//
// Every mutating method changes the balance and appends the movement in one
// atomic step, and fills m.BalanceAfter on success.
type Repository interface {
	// GetBatch returns the batch or an apperror NotFound.
	GetBatch(ctx context.Context, key BatchKey) (Batch, error)

	// DecrementIfAvailable subtracts m.Quantity only when the batch holds at
	// least that much. ok is false, with nothing written, when the condition
	// did not hold or the batch does not exist.
	DecrementIfAvailable(ctx context.Context, m *entity.StockMovement) (ok bool, err error)

	// Increment adds m.Quantity to an existing batch.
	Increment(ctx context.Context, m *entity.StockMovement) error

	// UpsertReceipt creates the batch or refreshes its attributes, then adds m.Quantity.
	UpsertReceipt(ctx context.Context, batch Batch, m *entity.StockMovement) (Batch, error)

	// ListMovements returns the newest movements of a batch first.
	ListMovements(ctx context.Context, key BatchKey, limit int) ([]entity.StockMovement, error)
}
