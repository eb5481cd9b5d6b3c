package memory

import (
	"context"
	"slices"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/documents/sale"
)

// SaleRepo implements sale.Repository over a Store.
type SaleRepo struct {
	s *Store
}

// Sales returns the sale view of the store.
func (s *Store) Sales() *SaleRepo {
	return &SaleRepo{s: s}
}

// Create stages the sale in the current transaction, or opens one.
func (r *SaleRepo) Create(ctx context.Context, sl *sale.Sale) error {
	return r.s.RunInTransaction(ctx, func(ctx context.Context) error {
		p := pendingFrom(ctx)

		r.s.mu.Lock()
		_, numberTaken := r.s.salesByNumber[sl.Number]
		_, keyTaken := r.s.salesByKey[sl.IdempotencyKey]
		r.s.mu.Unlock()

		for _, staged := range p.sales {
			numberTaken = numberTaken || staged.Number == sl.Number
			keyTaken = keyTaken || staged.IdempotencyKey == sl.IdempotencyKey
		}

		if sl.IdempotencyKey != "" && keyTaken {
			return apperror.NewDuplicate("sale", "idempotency_key", sl.IdempotencyKey)
		}
		if numberTaken {
			return apperror.NewDuplicate("sale", "number", sl.Number)
		}

		p.sales = append(p.sales, cloneSale(sl))
		return nil
	})
}

// putSale stores a committed sale. Caller holds s.mu.
func (s *Store) putSale(sl *sale.Sale) {
	s.sales[sl.ID] = sl
	s.salesByNumber[sl.Number] = sl.ID
	if sl.IdempotencyKey != "" {
		s.salesByKey[sl.IdempotencyKey] = sl.ID
	}
}

// GetByID returns a sale.
func (r *SaleRepo) GetByID(_ context.Context, saleID id.ID) (*sale.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sl, ok := r.s.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return cloneSale(sl), nil
}

// GetByNumber returns a sale by invoice number.
func (r *SaleRepo) GetByNumber(_ context.Context, number string) (*sale.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	saleID, ok := r.s.salesByNumber[number]
	if !ok {
		return nil, apperror.NewNotFound("sale", number)
	}
	return cloneSale(r.s.sales[saleID]), nil
}

// GetByIdempotencyKey returns the sale stored under key.
func (r *SaleRepo) GetByIdempotencyKey(_ context.Context, key string) (*sale.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	saleID, ok := r.s.salesByKey[key]
	if !ok {
		return nil, apperror.NewNotFound("sale", key)
	}
	return cloneSale(r.s.sales[saleID]), nil
}

func cloneSale(sl *sale.Sale) *sale.Sale {
	c := *sl
	c.Items = slices.Clone(sl.Items)
	return &c
}

var _ sale.Repository = (*SaleRepo)(nil)
