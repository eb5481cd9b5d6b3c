// Package memory provides in-process implementations of the storage ports.
// It backs the server's memory mode and the service tests.
//
// Every ledger operation is applied under one mutex, which makes the
// conditional decrements atomic. Transactions are serialized and their
// writes staged until commit; ledger operations never join them.
package memory

import (
	"context"
	"sync"
	"time"

	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/outbox"
	"pharmapos/internal/core/tx"
	"pharmapos/internal/domain/audit"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/domain/registers/stock"
)

// AuditEntry is a stored audit record.
type AuditEntry struct {
	EntityType string
	EntityID   id.ID
	Action     audit.Action
	Operator   string
	RequestID  string
	Changes    map[string]any
	At         time.Time
}

// Store holds all data of one process.
type Store struct {
	mu sync.Mutex

	batches       map[stock.BatchKey]stock.Batch
	stockJournal  []entity.StockMovement
	customers     map[string]loyalty.Customer
	pointsJournal []entity.PointsMovement
	sales         map[id.ID]*sale.Sale
	salesByNumber map[string]id.ID
	salesByKey    map[string]id.ID
	sequences     map[string]int64
	events        []outbox.Event
	auditLog      []AuditEntry

	// txMu serializes transactions.
	txMu sync.Mutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		batches:       make(map[stock.BatchKey]stock.Batch),
		customers:     make(map[string]loyalty.Customer),
		sales:         make(map[id.ID]*sale.Sale),
		salesByNumber: make(map[string]id.ID),
		salesByKey:    make(map[string]id.ID),
		sequences:     make(map[string]int64),
	}
}

type txKey struct{}

// pending collects the writes of one transaction.
type pending struct {
	sales     []*sale.Sale
	sequences map[string]int64
	events    []outbox.Event
	auditLog  []AuditEntry
}

func pendingFrom(ctx context.Context) *pending {
	p, _ := ctx.Value(txKey{}).(*pending)
	return p
}

// RunInTransaction implements tx.Manager. Nested calls join the outer
// transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if pendingFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	p := &pending{sequences: make(map[string]int64)}
	if err := fn(context.WithValue(ctx, txKey{}, p)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sl := range p.sales {
		s.putSale(sl)
	}
	for k, v := range p.sequences {
		s.sequences[k] = v
	}
	s.events = append(s.events, p.events...)
	s.auditLog = append(s.auditLog, p.auditLog...)
	return nil
}

// Events returns a copy of the published outbox events.
func (s *Store) Events() []outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Event(nil), s.events...)
}

// AuditEntries returns a copy of the audit trail.
func (s *Store) AuditEntries() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEntry(nil), s.auditLog...)
}

// Ping implements the readiness probe.
func (s *Store) Ping(context.Context) error {
	return nil
}

var _ tx.Manager = (*Store)(nil)
