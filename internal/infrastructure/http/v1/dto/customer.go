package dto

import (
	"time"

	"pharmapos/internal/core/entity"
	"pharmapos/internal/domain/registers/loyalty"
)

// EnrollCustomerRequest opens a loyalty account.
type EnrollCustomerRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
}

// ToProfile converts the request.
func (r EnrollCustomerRequest) ToProfile() loyalty.Profile {
	return loyalty.Profile{Name: r.Name, Contact: r.Contact, Email: r.Email}
}

// CustomerResponse is a loyalty account with its balance.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email,omitempty"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromCustomer builds the response for c.
func FromCustomer(c loyalty.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Contact:   c.Contact,
		Email:     c.Email,
		Points:    c.Points,
		CreatedAt: c.CreatedAt,
	}
}

// PointsMovementResponse is one points journal row.
type PointsMovementResponse struct {
	LineID       string    `json:"lineId"`
	RecorderID   string    `json:"recorderId"`
	RecorderType string    `json:"recorderType"`
	Reason       string    `json:"reason"`
	Points       int64     `json:"points"`
	BalanceAfter int64     `json:"balanceAfter"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromPointsMovements builds the journal response.
func FromPointsMovements(ms []entity.PointsMovement) []PointsMovementResponse {
	out := make([]PointsMovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, PointsMovementResponse{
			LineID:       m.LineID.String(),
			RecorderID:   m.RecorderID.String(),
			RecorderType: m.RecorderType,
			Reason:       string(m.Reason),
			Points:       m.Points,
			BalanceAfter: m.BalanceAfter,
			CreatedAt:    m.CreatedAt,
		})
	}
	return out
}
