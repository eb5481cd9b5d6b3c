// Package tx defines the transaction boundary used by domain services.
// Storage adapters provide the implementations.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// The Postgres adapter opens a database transaction and carries it in ctx so
// repositories called from fn join it. The in-memory adapter serializes fn.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
