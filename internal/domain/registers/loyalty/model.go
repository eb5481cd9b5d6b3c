// Package loyalty provides the customer loyalty-point ledger.
package loyalty

import (
	"strings"
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
)

// Customer is a loyalty account, keyed by contact.
type Customer struct {
	ID        id.ID     `db:"id" json:"id"`
	Contact   string    `db:"contact" json:"contact"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email,omitempty"`
	Points    int64     `db:"points" json:"points"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Profile is the identity part of a customer as entered at the counter.
type Profile struct {
	Name    string
	Contact string
	Email   string
}

// Normalize trims surrounding whitespace.
func (p Profile) Normalize() Profile {
	return Profile{
		Name:    strings.TrimSpace(p.Name),
		Contact: strings.TrimSpace(p.Contact),
		Email:   strings.TrimSpace(p.Email),
	}
}

// Validate requires a contact, the account key.
func (p Profile) Validate() error {
	if p.Contact == "" {
		return apperror.NewValidation("customer contact is required").
			WithDetail("field", "customer.contact")
	}
	return nil
}

// Rules are the redemption and accrual constants.
type Rules struct {
	// MinRedemption is the smallest non-zero redemption.
	MinRedemption int64

	// PointsPerUnit is the pre-discount amount that earns one point.
	PointsPerUnit types.Money
}

// DefaultRules: 1 point per 100 of subtotal, at least 50 points per redemption.
func DefaultRules() Rules {
	return Rules{
		MinRedemption: 50,
		PointsPerUnit: types.FromInt(100),
	}
}

// PointsFor returns floor(amount / PointsPerUnit).
func (r Rules) PointsFor(amount types.Money) int64 {
	if !amount.IsPositive() || !r.PointsPerUnit.IsPositive() {
		return 0
	}
	return amount.Div(r.PointsPerUnit).Floor().IntPart()
}

// CheckRedemption validates a redemption amount without touching any balance.
// Zero is allowed and means no redemption.
func (r Rules) CheckRedemption(points int64) error {
	if points < 0 {
		return apperror.NewValidation("redeemed points cannot be negative").
			WithDetail("field", "redeemedPoints")
	}
	if points > 0 && points < r.MinRedemption {
		return apperror.NewBelowMinimumRedemption(points, r.MinRedemption)
	}
	return nil
}
