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
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/registers/loyalty"
	"pharmapos/internal/infrastructure/storage/postgres"
)

const (
	customersTable       = "cat_customers"
	pointsMovementsTable = "reg_points_movements"
)

var (
	customerColumns       = postgres.ExtractDBColumns[loyalty.Customer]()
	pointsMovementColumns = postgres.ExtractDBColumns[entity.PointsMovement]()
)

// LoyaltyRepo implements loyalty.Repository.
type LoyaltyRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ loyalty.Repository = (*LoyaltyRepo)(nil)

// NewLoyaltyRepo creates a new loyalty ledger repository.
func NewLoyaltyRepo(txManager *postgres.TxManager) *LoyaltyRepo {
	return &LoyaltyRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByContact returns a customer.
func (r *LoyaltyRepo) GetByContact(ctx context.Context, contact string) (loyalty.Customer, error) {
	sql, args, err := r.builder.
		Select(customerColumns...).
		From(customersTable).
		Where(squirrel.Eq{"contact": contact}).
		ToSql()
	if err != nil {
		return loyalty.Customer{}, fmt.Errorf("build select: %w", err)
	}

	var c loyalty.Customer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return loyalty.Customer{}, apperror.NewNotFound("customer", contact)
		}
		return loyalty.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Upsert creates the customer with a zero balance if missing. An existing
// customer is returned unchanged.
func (r *LoyaltyRepo) Upsert(ctx context.Context, p loyalty.Profile) (loyalty.Customer, error) {
	sql, args, err := r.builder.
		Insert(customersTable).
		Columns("id", "contact", "name", "email", "points", "created_at", "updated_at").
		Values(id.New(), p.Contact, p.Name, p.Email, 0, squirrel.Expr("NOW()"), squirrel.Expr("NOW()")).
		Suffix("ON CONFLICT (contact) DO UPDATE SET contact = EXCLUDED.contact").
		Suffix("RETURNING " + joinColumns(customerColumns)).
		ToSql()
	if err != nil {
		return loyalty.Customer{}, fmt.Errorf("build upsert: %w", err)
	}

	var c loyalty.Customer
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		return loyalty.Customer{}, fmt.Errorf("upsert customer: %w", err)
	}
	return c, nil
}

// DecrementIfAtLeast takes m.Points only if the balance covers them.
func (r *LoyaltyRepo) DecrementIfAtLeast(ctx context.Context, m *entity.PointsMovement) (bool, error) {
	const sql = `
		WITH upd AS (
			UPDATE cat_customers
			SET points = points - $2, updated_at = NOW()
			WHERE contact = $1 AND points >= $2
			RETURNING points
		), mv AS (
			INSERT INTO reg_points_movements
				(line_id, recorder_id, recorder_type, record_type, created_at, customer_contact, reason, points, balance_after)
			SELECT $3, $4, $5, $6, $7, $1, $8, $2, points FROM upd
			RETURNING balance_after
		)
		SELECT balance_after FROM mv`

	err := r.txManager.QueryRow(ctx, sql,
		m.CustomerContact, m.Points,
		m.LineID, m.RecorderID, m.RecorderType, m.RecordType, m.CreatedAt, m.Reason,
	).Scan(&m.BalanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("decrement points: %w", err)
	}
	return true, nil
}

// Increment credits m.Points to an existing customer.
func (r *LoyaltyRepo) Increment(ctx context.Context, m *entity.PointsMovement) error {
	const sql = `
		WITH upd AS (
			UPDATE cat_customers
			SET points = points + $2, updated_at = NOW()
			WHERE contact = $1
			RETURNING points
		), mv AS (
			INSERT INTO reg_points_movements
				(line_id, recorder_id, recorder_type, record_type, created_at, customer_contact, reason, points, balance_after)
			SELECT $3, $4, $5, $6, $7, $1, $8, $2, points FROM upd
			RETURNING balance_after
		)
		SELECT balance_after FROM mv`

	err := r.txManager.QueryRow(ctx, sql,
		m.CustomerContact, m.Points,
		m.LineID, m.RecorderID, m.RecorderType, m.RecordType, m.CreatedAt, m.Reason,
	).Scan(&m.BalanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound("customer", m.CustomerContact)
	}
	if err != nil {
		return fmt.Errorf("increment points: %w", err)
	}
	return nil
}

// ListMovements returns the journal of one customer, newest first.
func (r *LoyaltyRepo) ListMovements(ctx context.Context, contact string, limit int) ([]entity.PointsMovement, error) {
	sql, args, err := r.builder.
		Select(pointsMovementColumns...).
		From(pointsMovementsTable).
		Where(squirrel.Eq{"customer_contact": contact}).
		OrderBy("created_at DESC", "line_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var out []entity.PointsMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list points movements: %w", err)
	}
	return out, nil
}
