package loyalty

import (
	"context"

	"pharmapos/internal/core/entity"
)

// Repository persists customer balances and the points journal.
//
// Mutating methods change the balance and append the movement atomically,
// filling m.BalanceAfter on success.
type Repository interface {
	// GetByContact returns the customer or an apperror NotFound.
	GetByContact(ctx context.Context, contact string) (Customer, error)

	// Upsert creates the customer with zero points when missing. An existing
	// customer is returned unchanged.
	Upsert(ctx context.Context, profile Profile) (Customer, error)

	// DecrementIfAtLeast subtracts m.Points only when the balance covers it.
	// ok is false, with nothing written, when it does not or the customer is unknown.
	DecrementIfAtLeast(ctx context.Context, m *entity.PointsMovement) (ok bool, err error)

	// Increment adds m.Points to an existing customer.
	Increment(ctx context.Context, m *entity.PointsMovement) error

	// ListMovements returns the newest movements first.
	ListMovements(ctx context.Context, contact string, limit int) ([]entity.PointsMovement, error)
}
