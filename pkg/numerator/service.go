// Package numerator provides gap-free invoice numbering backed by PostgreSQL.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "pharmapos/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service draws numbers from sys_sequences with UPSERT ... RETURNING, so two
// concurrent sales never share an invoice number and no number is skipped
// unless a transaction holding it rolls back.
type Service struct {
	querier Querier
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service over querier (a pool or a TxManager-aware wrapper).
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// GetNextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	num, err := s.next(ctx, cfg.SequenceKey(period))
	if err != nil {
		return "", err
	}

	return cfg.Format(period, num), nil
}

func (s *Service) next(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("next number for %s: %w", key, err)
	}
	return num, nil
}
