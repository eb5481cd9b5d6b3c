package numerator

import (
	"context"
	"time"
)

// Generator hands out gap-free sequential document numbers.
// Implementations live in pkg/numerator (Postgres) and the memory store.
type Generator interface {
	// GetNextNumber generates the next document number for period.
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)
}
