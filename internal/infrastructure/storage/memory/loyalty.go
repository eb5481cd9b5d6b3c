package memory

import (
	"context"
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/registers/loyalty"
)

// LoyaltyRepo implements loyalty.Repository over a Store.
type LoyaltyRepo struct {
	s *Store
}

// Loyalty returns the points ledger view of the store.
func (s *Store) Loyalty() *LoyaltyRepo {
	return &LoyaltyRepo{s: s}
}

// GetByContact returns a customer.
func (r *LoyaltyRepo) GetByContact(_ context.Context, contact string) (loyalty.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[contact]
	if !ok {
		return loyalty.Customer{}, apperror.NewNotFound("customer", contact)
	}
	return c, nil
}

// Upsert creates the customer with a zero balance if missing. An existing
// customer is returned unchanged.
func (r *LoyaltyRepo) Upsert(_ context.Context, p loyalty.Profile) (loyalty.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c, ok := r.s.customers[p.Contact]; ok {
		return c, nil
	}

	now := time.Now().UTC()
	c := loyalty.Customer{
		ID:        id.New(),
		Contact:   p.Contact,
		Name:      p.Name,
		Email:     p.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.customers[p.Contact] = c
	return c, nil
}

// DecrementIfAtLeast takes m.Points when the balance covers them.
func (r *LoyaltyRepo) DecrementIfAtLeast(_ context.Context, m *entity.PointsMovement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[m.CustomerContact]
	if !ok || c.Points < m.Points {
		return false, nil
	}

	c.Points -= m.Points
	c.UpdatedAt = time.Now().UTC()
	r.s.customers[m.CustomerContact] = c

	m.BalanceAfter = c.Points
	r.s.pointsJournal = append(r.s.pointsJournal, *m)
	return true, nil
}

// Increment credits m.Points to an existing customer.
func (r *LoyaltyRepo) Increment(_ context.Context, m *entity.PointsMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[m.CustomerContact]
	if !ok {
		return apperror.NewNotFound("customer", m.CustomerContact)
	}

	c.Points += m.Points
	c.UpdatedAt = time.Now().UTC()
	r.s.customers[m.CustomerContact] = c

	m.BalanceAfter = c.Points
	r.s.pointsJournal = append(r.s.pointsJournal, *m)
	return nil
}

// ListMovements returns the journal of one customer, newest first.
func (r *LoyaltyRepo) ListMovements(_ context.Context, contact string, limit int) ([]entity.PointsMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []entity.PointsMovement
	for i := len(r.s.pointsJournal) - 1; i >= 0 && len(out) < limit; i-- {
		if m := r.s.pointsJournal[i]; m.CustomerContact == contact {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ loyalty.Repository = (*LoyaltyRepo)(nil)
