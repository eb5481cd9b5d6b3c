// Package outbox defines domain events published through the transactional outbox.
package outbox

import (
	"context"

	"pharmapos/internal/core/id"
)

// Event represents an event to be published via outbox.
type Event struct {
	AggregateType string // e.g. "Sale"
	AggregateID   id.ID
	EventType     string // e.g. "SaleCommitted"
	Payload       any
}

// Publisher records events. Implementations must write inside the
// transaction carried by ctx so the event commits with the aggregate.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
