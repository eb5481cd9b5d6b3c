package stock

import (
	"context"
	"fmt"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/pkg/logger"
)

// RecorderPurchase is the recorder type used for purchase intake.
const RecorderPurchase = "PurchaseReceipt"

// Service is the stock ledger. All quantity changes go through it.
type Service struct {
	repo Repository
}

// NewService creates a new stock ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetBatch returns the current state of a batch.
func (s *Service) GetBatch(ctx context.Context, key BatchKey) (Batch, error) {
	if err := key.Validate(); err != nil {
		return Batch{}, err
	}
	return s.repo.GetBatch(ctx, key)
}

// Allocate takes qty units out of a batch for recorder.
//
// The check and the decrement are one conditional write. When it does not
// apply the result is final: InsufficientStock with the shortfall, or
// NotFound for an unknown batch. It is never retried.
func (s *Service) Allocate(ctx context.Context, key BatchKey, qty int64, recorder entity.Recorder) (entity.StockMovement, error) {
	if err := key.Validate(); err != nil {
		return entity.StockMovement{}, err
	}
	if qty <= 0 {
		return entity.StockMovement{}, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("batch", key.String())
	}

	m := entity.NewStockMovement(recorder, entity.RecordTypeExpense, key.ProductName, key.BatchID, qty)
	ok, err := s.repo.DecrementIfAvailable(ctx, &m)
	if err != nil {
		return entity.StockMovement{}, fmt.Errorf("allocate %s: %w", key, err)
	}

	if !ok {
		batch, err := s.repo.GetBatch(ctx, key)
		if err != nil {
			return entity.StockMovement{}, err
		}
		logger.Warn(ctx, "insufficient stock",
			"batch", key.String(),
			"requested", qty,
			"available", batch.Quantity,
			"recorder_id", recorder.ID,
		)
		return entity.StockMovement{}, apperror.NewInsufficientStock(key.ProductName, key.BatchID, qty, batch.Quantity)
	}

	logger.Debug(ctx, "stock allocated",
		"batch", key.String(),
		"quantity", qty,
		"balance_after", m.BalanceAfter,
		"recorder_id", recorder.ID,
	)

	return m, nil
}

// Release returns qty units to a batch. It is the inverse of Allocate and is
// used only to compensate a sale that did not commit.
func (s *Service) Release(ctx context.Context, key BatchKey, qty int64, recorder entity.Recorder) (entity.StockMovement, error) {
	if qty <= 0 {
		return entity.StockMovement{}, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("batch", key.String())
	}

	m := entity.NewStockMovement(recorder, entity.RecordTypeReceipt, key.ProductName, key.BatchID, qty)
	if err := s.repo.Increment(ctx, &m); err != nil {
		return entity.StockMovement{}, fmt.Errorf("release %s: %w", key, err)
	}

	logger.Info(ctx, "stock released",
		"batch", key.String(),
		"quantity", qty,
		"balance_after", m.BalanceAfter,
		"recorder_id", recorder.ID,
	)

	return m, nil
}

// Receive records purchase intake: the batch is created or its attributes
// refreshed, and qty is credited.
func (s *Service) Receive(ctx context.Context, batch Batch, qty int64, recorder entity.Recorder) (Batch, error) {
	if err := batch.Key().Validate(); err != nil {
		return Batch{}, err
	}
	if qty <= 0 {
		return Batch{}, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if batch.MRP.IsNegative() {
		return Batch{}, apperror.NewValidation("mrp cannot be negative").
			WithDetail("field", "mrp")
	}
	if batch.GSTPercent.IsNegative() || batch.GSTPercent.GreaterThan(maxGSTPercent) {
		return Batch{}, apperror.NewValidation("gst percent must be between 0 and 100").
			WithDetail("field", "gstPercent")
	}
	if recorder.Type == "" {
		recorder.Type = RecorderPurchase
	}

	m := entity.NewStockMovement(recorder, entity.RecordTypeReceipt, batch.ProductName, batch.BatchID, qty)
	stored, err := s.repo.UpsertReceipt(ctx, batch, &m)
	if err != nil {
		return Batch{}, fmt.Errorf("receive %s: %w", batch.Key(), err)
	}

	logger.Info(ctx, "stock received",
		"batch", batch.Key().String(),
		"quantity", qty,
		"balance_after", stored.Quantity,
	)

	return stored, nil
}

// Movements returns the journal of a batch, newest first.
func (s *Service) Movements(ctx context.Context, key BatchKey, limit int) ([]entity.StockMovement, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.ListMovements(ctx, key, limit)
}
