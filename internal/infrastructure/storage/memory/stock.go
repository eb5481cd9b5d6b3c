package memory

import (
	"context"
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/domain/registers/stock"
)

// StockRepo implements stock.Repository over a Store.
type StockRepo struct {
	s *Store
}

// Stock returns the batch ledger view of the store.
func (s *Store) Stock() *StockRepo {
	return &StockRepo{s: s}
}

// GetBatch returns a batch.
func (r *StockRepo) GetBatch(_ context.Context, key stock.BatchKey) (stock.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.batches[key]
	if !ok {
		return stock.Batch{}, apperror.NewNotFound("batch", key.String())
	}
	return b, nil
}

// DecrementIfAvailable takes m.Quantity when at least that much is on hand.
func (r *StockRepo) DecrementIfAvailable(_ context.Context, m *entity.StockMovement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := stock.BatchKey{ProductName: m.ProductName, BatchID: m.BatchID}
	b, ok := r.s.batches[key]
	if !ok || b.Quantity < m.Quantity {
		return false, nil
	}

	b.Quantity -= m.Quantity
	b.UpdatedAt = time.Now().UTC()
	r.s.batches[key] = b

	m.BalanceAfter = b.Quantity
	r.s.stockJournal = append(r.s.stockJournal, *m)
	return true, nil
}

// Increment adds m.Quantity to an existing batch.
func (r *StockRepo) Increment(_ context.Context, m *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := stock.BatchKey{ProductName: m.ProductName, BatchID: m.BatchID}
	b, ok := r.s.batches[key]
	if !ok {
		return apperror.NewNotFound("batch", key.String())
	}

	b.Quantity += m.Quantity
	b.UpdatedAt = time.Now().UTC()
	r.s.batches[key] = b

	m.BalanceAfter = b.Quantity
	r.s.stockJournal = append(r.s.stockJournal, *m)
	return nil
}

// UpsertReceipt creates the batch or refreshes its attributes, then credits m.Quantity.
func (r *StockRepo) UpsertReceipt(_ context.Context, batch stock.Batch, m *entity.StockMovement) (stock.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := batch.Key()
	onHand := r.s.batches[key].Quantity

	batch.Quantity = onHand + m.Quantity
	batch.UpdatedAt = time.Now().UTC()
	r.s.batches[key] = batch

	m.BalanceAfter = batch.Quantity
	r.s.stockJournal = append(r.s.stockJournal, *m)
	return batch, nil
}

// ListMovements returns the journal of one batch, newest first.
func (r *StockRepo) ListMovements(_ context.Context, key stock.BatchKey, limit int) ([]entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []entity.StockMovement
	for i := len(r.s.stockJournal) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.s.stockJournal[i]
		if m.ProductName == key.ProductName && m.BatchID == key.BatchID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ stock.Repository = (*StockRepo)(nil)
