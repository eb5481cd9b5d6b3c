package sale

import (
	"context"

	"pharmapos/internal/core/id"
)

// Repository stores sales. Sales are never updated or deleted.
type Repository interface {
	// Create inserts the sale with its lines. A taken number or idempotency
	// key yields apperror DUPLICATE_ENTRY with detail "field".
	Create(ctx context.Context, s *Sale) error

	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	GetByNumber(ctx context.Context, number string) (*Sale, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Sale, error)
}
