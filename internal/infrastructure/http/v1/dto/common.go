// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/types"
)

// dateLayouts are the accepted forms of a date field.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// LimitQuery bounds journal listings.
type LimitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// Defaults sets the default page size.
func (q *LimitQuery) Defaults() {
	if q.Limit == 0 {
		q.Limit = 50
	}
}

// parseMoney converts a decimal string. Empty means zero.
func parseMoney(field, s string) (types.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Zero(), nil
	}
	m, err := types.NewMoneyFromString(s)
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid amount").
			WithDetail("field", field).
			WithCause(err)
	}
	return m, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339. Empty means no date.
func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.NewValidation("invalid date").WithDetail("field", field)
}

// formatMoney renders an amount with two decimals.
func formatMoney(m types.Money) string {
	return m.StringFixed(2)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
