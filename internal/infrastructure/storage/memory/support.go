package memory

import (
	"context"
	"errors"
	"time"

	appctx "pharmapos/internal/core/context"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/numerator"
	"pharmapos/internal/core/outbox"
	"pharmapos/internal/domain/audit"
	"pharmapos/internal/domain/registers/loyalty"
)

// ErrNoTransaction is returned by Publish outside RunInTransaction.
var ErrNoTransaction = errors.New("outbox publish requires a transaction")

// GetNextNumber implements numerator.Generator. Inside a transaction the
// counter only advances on commit, so numbers stay gap-free.
func (s *Store) GetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time) (string, error) {
	key := cfg.SequenceKey(period)

	if p := pendingFrom(ctx); p != nil {
		next, ok := p.sequences[key]
		if !ok {
			s.mu.Lock()
			next = s.sequences[key]
			s.mu.Unlock()
		}
		next++
		p.sequences[key] = next
		return cfg.Format(period, next), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[key]++
	return cfg.Format(period, s.sequences[key]), nil
}

// Publish implements outbox.Publisher.
func (s *Store) Publish(ctx context.Context, event outbox.Event) error {
	p := pendingFrom(ctx)
	if p == nil {
		return ErrNoTransaction
	}
	p.events = append(p.events, event)
	return nil
}

// LogChange implements audit.Logger. Outside a transaction the entry is
// written immediately.
func (s *Store) LogChange(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	entry := AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Operator:   appctx.Operator(ctx),
		RequestID:  appctx.RequestID(ctx),
		Changes:    changes,
		At:         time.Now().UTC(),
	}

	if p := pendingFrom(ctx); p != nil {
		p.auditLog = append(p.auditLog, entry)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLog = append(s.auditLog, entry)
	return nil
}

// History implements audit.Reader. Uncommitted entries are not visible.
func (s *Store) History(_ context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []audit.Entry
	for i := len(s.auditLog) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.auditLog[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		out = append(out, audit.Entry{
			Action:    e.Action,
			Operator:  e.Operator,
			RequestID: e.RequestID,
			Changes:   e.Changes,
			At:        e.At,
		})
	}
	return out, nil
}

// SeedCustomer stores c as is, balance included. Used for imports and tests.
func (s *Store) SeedCustomer(c loyalty.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.customers[c.Contact] = c
}

var (
	_ numerator.Generator = (*Store)(nil)
	_ outbox.Publisher    = (*Store)(nil)
	_ audit.Trail         = (*Store)(nil)
)
