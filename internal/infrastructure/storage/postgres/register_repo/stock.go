// Package register_repo provides PostgreSQL implementations of the ledgers.
//
// Every balance change is a single statement: a conditional UPDATE and the
// journal INSERT chained in one CTE, so check-and-write is atomic without
// explicit locking or retries.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/domain/registers/stock"
	"pharmapos/internal/infrastructure/storage/postgres"
)

const (
	stockBatchesTable   = "reg_stock_batches"
	stockMovementsTable = "reg_stock_movements"
)

var (
	batchColumns         = postgres.ExtractDBColumns[stock.Batch]()
	stockMovementColumns = postgres.ExtractDBColumns[entity.StockMovement]()
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetBatch returns one batch.
func (r *StockRepo) GetBatch(ctx context.Context, key stock.BatchKey) (stock.Batch, error) {
	q := r.builder.
		Select(batchColumns...).
		From(stockBatchesTable).
		Where(squirrel.Eq{"product_name": key.ProductName, "batch_id": key.BatchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return stock.Batch{}, fmt.Errorf("build select: %w", err)
	}

	var b stock.Batch
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Batch{}, apperror.NewNotFound("batch", key.String())
		}
		return stock.Batch{}, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// DecrementIfAvailable takes m.Quantity only if that much is on hand.
func (r *StockRepo) DecrementIfAvailable(ctx context.Context, m *entity.StockMovement) (bool, error) {
	const sql = `
		WITH upd AS (
			UPDATE reg_stock_batches
			SET quantity = quantity - $3, updated_at = NOW()
			WHERE product_name = $1 AND batch_id = $2 AND quantity >= $3
			RETURNING quantity
		), mv AS (
			INSERT INTO reg_stock_movements
				(line_id, recorder_id, recorder_type, record_type, created_at, product_name, batch_id, quantity, balance_after)
			SELECT $4, $5, $6, $7, $8, $1, $2, $3, quantity FROM upd
			RETURNING balance_after
		)
		SELECT balance_after FROM mv`

	err := r.txManager.QueryRow(ctx, sql,
		m.ProductName, m.BatchID, m.Quantity,
		m.LineID, m.RecorderID, m.RecorderType, m.RecordType, m.CreatedAt,
	).Scan(&m.BalanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("decrement batch: %w", err)
	}
	return true, nil
}

// Increment adds m.Quantity to an existing batch.
func (r *StockRepo) Increment(ctx context.Context, m *entity.StockMovement) error {
	const sql = `
		WITH upd AS (
			UPDATE reg_stock_batches
			SET quantity = quantity + $3, updated_at = NOW()
			WHERE product_name = $1 AND batch_id = $2
			RETURNING quantity
		), mv AS (
			INSERT INTO reg_stock_movements
				(line_id, recorder_id, recorder_type, record_type, created_at, product_name, batch_id, quantity, balance_after)
			SELECT $4, $5, $6, $7, $8, $1, $2, $3, quantity FROM upd
			RETURNING balance_after
		)
		SELECT balance_after FROM mv`

	err := r.txManager.QueryRow(ctx, sql,
		m.ProductName, m.BatchID, m.Quantity,
		m.LineID, m.RecorderID, m.RecorderType, m.RecordType, m.CreatedAt,
	).Scan(&m.BalanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound("batch", fmt.Sprintf("%s/%s", m.ProductName, m.BatchID))
	}
	if err != nil {
		return fmt.Errorf("increment batch: %w", err)
	}
	return nil
}

// UpsertReceipt creates the batch or refreshes its attributes, and credits m.Quantity.
func (r *StockRepo) UpsertReceipt(ctx context.Context, b stock.Batch, m *entity.StockMovement) (stock.Batch, error) {
	const sql = `
		WITH up AS (
			INSERT INTO reg_stock_batches
				(product_name, batch_id, packing, quantity, mrp, gst_percent, expiry_date, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			ON CONFLICT (product_name, batch_id) DO UPDATE SET
				packing     = EXCLUDED.packing,
				mrp         = EXCLUDED.mrp,
				gst_percent = EXCLUDED.gst_percent,
				expiry_date = EXCLUDED.expiry_date,
				quantity    = reg_stock_batches.quantity + EXCLUDED.quantity,
				updated_at  = NOW()
			RETURNING product_name, batch_id, packing, quantity, mrp, gst_percent, expiry_date, updated_at
		), mv AS (
			INSERT INTO reg_stock_movements
				(line_id, recorder_id, recorder_type, record_type, created_at, product_name, batch_id, quantity, balance_after)
			SELECT $8, $9, $10, $11, $12, product_name, batch_id, $4, quantity FROM up
		)
		SELECT product_name, batch_id, packing, quantity, mrp, gst_percent, expiry_date, updated_at FROM up`

	var stored stock.Batch
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &stored, sql,
		b.ProductName, b.BatchID, b.Packing, m.Quantity, b.MRP, b.GSTPercent, b.ExpiryDate,
		m.LineID, m.RecorderID, m.RecorderType, m.RecordType, m.CreatedAt,
	)
	if err != nil {
		return stock.Batch{}, fmt.Errorf("upsert batch: %w", err)
	}

	m.BalanceAfter = stored.Quantity
	return stored, nil
}

// ListMovements returns the journal of one batch, newest first.
func (r *StockRepo) ListMovements(ctx context.Context, key stock.BatchKey, limit int) ([]entity.StockMovement, error) {
	q := r.builder.
		Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_name": key.ProductName, "batch_id": key.BatchID}).
		OrderBy("created_at DESC", "line_id DESC").
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var out []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return out, nil
}
