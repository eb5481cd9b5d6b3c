package loyalty

import (
	"context"
	"fmt"
	"strings"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/entity"
	"pharmapos/internal/core/types"
	"pharmapos/pkg/logger"
)

// Service is the loyalty ledger. Balances change only through it.
type Service struct {
	repo  Repository
	rules Rules
}

// NewService creates a new loyalty ledger service.
func NewService(repo Repository, rules Rules) *Service {
	return &Service{repo: repo, rules: rules}
}

// Rules returns the active redemption and accrual rules.
func (s *Service) Rules() Rules {
	return s.rules
}

// Get returns a customer by contact.
func (s *Service) Get(ctx context.Context, contact string) (Customer, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return Customer{}, apperror.NewValidation("customer contact is required").
			WithDetail("field", "contact")
	}
	return s.repo.GetByContact(ctx, contact)
}

// Enroll makes sure a loyalty account exists for profile.
func (s *Service) Enroll(ctx context.Context, profile Profile) (Customer, error) {
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return Customer{}, err
	}

	c, err := s.repo.Upsert(ctx, profile)
	if err != nil {
		return Customer{}, fmt.Errorf("enroll customer: %w", err)
	}
	return c, nil
}

// Redeem takes points off a customer's balance.
//
// Zero is a no-op. Below the minimum is BelowMinimumRedemption. More than
// the balance is InsufficientPoints; that result comes from a single
// conditional write and is not retried.
func (s *Service) Redeem(ctx context.Context, contact string, points int64, recorder entity.Recorder) (entity.PointsMovement, error) {
	if err := s.rules.CheckRedemption(points); err != nil {
		return entity.PointsMovement{}, err
	}
	if points == 0 {
		return entity.PointsMovement{}, nil
	}

	m := entity.NewPointsMovement(recorder, contact, entity.PointsRedeem, points)
	ok, err := s.repo.DecrementIfAtLeast(ctx, &m)
	if err != nil {
		return entity.PointsMovement{}, fmt.Errorf("redeem points: %w", err)
	}

	if !ok {
		c, err := s.repo.GetByContact(ctx, contact)
		if err != nil {
			return entity.PointsMovement{}, err
		}
		return entity.PointsMovement{}, apperror.NewInsufficientPoints(contact, points, c.Points)
	}

	logger.Info(ctx, "points redeemed",
		"customer", contact,
		"points", points,
		"balance_after", m.BalanceAfter,
		"recorder_id", recorder.ID,
	)

	return m, nil
}

// Accrue credits floor(eligibleAmount / PointsPerUnit) points.
// eligibleAmount is the pre-discount, pre-redemption subtotal.
func (s *Service) Accrue(ctx context.Context, contact string, eligibleAmount types.Money, recorder entity.Recorder) (entity.PointsMovement, error) {
	earned := s.rules.PointsFor(eligibleAmount)
	if earned == 0 {
		return entity.PointsMovement{Points: 0}, nil
	}

	m := entity.NewPointsMovement(recorder, contact, entity.PointsAccrue, earned)
	if err := s.repo.Increment(ctx, &m); err != nil {
		return entity.PointsMovement{}, fmt.Errorf("accrue points: %w", err)
	}

	logger.Info(ctx, "points accrued",
		"customer", contact,
		"points", earned,
		"balance_after", m.BalanceAfter,
		"recorder_id", recorder.ID,
	)

	return m, nil
}

// Restore gives back points taken by Redeem for a sale that did not commit.
func (s *Service) Restore(ctx context.Context, contact string, points int64, recorder entity.Recorder) error {
	if points <= 0 {
		return nil
	}

	m := entity.NewPointsMovement(recorder, contact, entity.PointsRestore, points)
	if err := s.repo.Increment(ctx, &m); err != nil {
		return fmt.Errorf("restore points: %w", err)
	}

	logger.Info(ctx, "points restored", "customer", contact, "points", points, "recorder_id", recorder.ID)
	return nil
}

// Reverse takes back points credited by Accrue for a sale that did not commit.
// It fails if the customer has spent them in the meantime.
func (s *Service) Reverse(ctx context.Context, contact string, points int64, recorder entity.Recorder) error {
	if points <= 0 {
		return nil
	}

	m := entity.NewPointsMovement(recorder, contact, entity.PointsReverse, points)
	ok, err := s.repo.DecrementIfAtLeast(ctx, &m)
	if err != nil {
		return fmt.Errorf("reverse accrual: %w", err)
	}
	if !ok {
		return apperror.NewConflict("accrued points already spent").
			WithDetail("customer", contact).
			WithDetail("points", points)
	}

	logger.Info(ctx, "accrual reversed", "customer", contact, "points", points, "recorder_id", recorder.ID)
	return nil
}

// Movements returns the points journal of a customer, newest first.
func (s *Service) Movements(ctx context.Context, contact string, limit int) ([]entity.PointsMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.ListMovements(ctx, strings.TrimSpace(contact), limit)
}
