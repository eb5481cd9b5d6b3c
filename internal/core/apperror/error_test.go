package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientStock_ReportsShortfall(t *testing.T) {
	err := NewInsufficientStock("Paracetamol 500", "B-17", 3, 2)

	assert.Equal(t, CodeInsufficientStock, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, int64(1), err.Details["shortfall"])
	assert.Contains(t, err.Message, "only 2 units of batch B-17")
}

func TestPersistenceFailure_IsRetryable(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewPersistenceFailure(cause)

	assert.True(t, err.Retryable())
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus)
	assert.ErrorIs(t, err, cause)

	assert.False(t, NewValidation("bad").Retryable())
}

func TestAsAppError_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("allocate: %w", NewBelowMinimumRedemption(30, 50))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeBelowMinimumRedemption, appErr.Code)
	assert.True(t, IsCode(wrapped, CodeBelowMinimumRedemption))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestWithDetail_InitializesMap(t *testing.T) {
	err := (&AppError{Code: CodeConflict}).WithDetail("stage", "Persisting")
	assert.Equal(t, "Persisting", err.Details["stage"])
}
