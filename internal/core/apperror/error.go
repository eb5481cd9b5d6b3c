// Package apperror defines the error taxonomy of the service. Every error
// that reaches a caller is an *AppError: a stable code, a message, a
// suggested HTTP status and structured details.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// 5xx
	CodeInternal           = "INTERNAL_ERROR"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeCanceled           = "CANCELED"

	// 400
	CodeValidation = "VALIDATION_ERROR"

	// 422, the cart is well formed but the ledgers refuse it
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInsufficientPoints     = "INSUFFICIENT_POINTS"
	CodeBelowMinimumRedemption = "BELOW_MINIMUM_REDEMPTION"

	// 404
	CodeNotFound = "NOT_FOUND"

	// 409
	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// StatusClientClosedRequest is the nginx status for a caller that went away.
const StatusClientClosedRequest = 499

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`

	// Err is the cause. It is logged, never sent to clients.
	Err error `json:"-"`
}

func newError(code string, status int, msg string, details map[string]any) *AppError {
	return &AppError{Code: code, HTTPStatus: status, Message: msg, Details: details}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithCause sets the cause and returns e.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Retryable reports whether the caller may resubmit the same request with
// the same idempotency key.
func (e *AppError) Retryable() bool {
	v, _ := e.Details["retryable"].(bool)
	return v
}

func NewValidation(message string) *AppError {
	return newError(CodeValidation, http.StatusBadRequest, message, nil)
}

func NewNotFound(entity string, ref any) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, entity+" not found",
		map[string]any{"entity": entity, "id": ref})
}

// NewInsufficientStock reports a batch that cannot cover the requested
// quantity.
func NewInsufficientStock(product, batch string, requested, available int64) *AppError {
	return newError(CodeInsufficientStock, http.StatusUnprocessableEntity,
		fmt.Sprintf("only %d units of batch %s (%s) available", available, batch, product),
		map[string]any{
			"product":   product,
			"batch":     batch,
			"requested": requested,
			"available": available,
			"shortfall": requested - available,
		})
}

// NewInsufficientPoints reports a redemption above the customer's balance.
func NewInsufficientPoints(contact string, requested, balance int64) *AppError {
	return newError(CodeInsufficientPoints, http.StatusUnprocessableEntity,
		fmt.Sprintf("customer has %d points, %d requested", balance, requested),
		map[string]any{"customer": contact, "requested": requested, "balance": balance})
}

// NewBelowMinimumRedemption reports a redemption under the configured floor.
func NewBelowMinimumRedemption(requested, minimum int64) *AppError {
	return newError(CodeBelowMinimumRedemption, http.StatusUnprocessableEntity,
		fmt.Sprintf("at least %d points must be redeemed", minimum),
		map[string]any{"requested": requested, "minimum": minimum})
}

// NewPersistenceFailure wraps a storage failure. Ledger effects have been
// compensated, so the till may retry with the same idempotency key.
func NewPersistenceFailure(err error) *AppError {
	return newError(CodePersistenceFailure, http.StatusServiceUnavailable,
		"sale could not be stored, retry with the same idempotency key",
		map[string]any{"retryable": true}).WithCause(err)
}

func NewCanceled(err error) *AppError {
	return newError(CodeCanceled, StatusClientClosedRequest, "operation canceled", nil).WithCause(err)
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	return newError(CodeInternal, http.StatusInternalServerError, "internal server error", nil).WithCause(err)
}

// NewIdempotencyMismatch reports a key reused for a different cart.
func NewIdempotencyMismatch(key string) *AppError {
	return newError(CodeIdempotency, http.StatusConflict,
		"idempotency key was already used for a different cart",
		map[string]any{"idempotency_key": key})
}

func NewConflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, message, nil)
}

// NewDuplicate reports a unique key violation.
func NewDuplicate(entity, field, value string) *AppError {
	return newError(CodeDuplicate, http.StatusConflict,
		fmt.Sprintf("%s with this %s already exists", entity, field),
		map[string]any{"entity": entity, "field": field, "value": value})
}

// AsAppError finds an *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// GetHTTPStatus returns the suggested status, 500 for foreign errors.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool  { return IsCode(err, CodeNotFound) }
func IsDuplicate(err error) bool { return IsCode(err, CodeDuplicate) }
