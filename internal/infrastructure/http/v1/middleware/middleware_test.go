package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/apperror"
	appctx "pharmapos/internal/core/context"
	"pharmapos/internal/infrastructure/http/v1/dto"
	"pharmapos/pkg/logger"
)

func newEngine(h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), RequestContext(), AccessLog(logger.NewNop()), Errors())
	r.GET("/x", h)
	return r
}

func serve(t *testing.T, r *gin.Engine, headers map[string]string) (*httptest.ResponseRecorder, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var p dto.ErrorResponse
	if w.Code >= 400 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	}
	return w, p
}

func TestRequestContext_KeepsClientIDs(t *testing.T) {
	var got appctx.Request
	r := newEngine(func(c *gin.Context) {
		got, _ = appctx.RequestFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w, _ := serve(t, r, map[string]string{
		HeaderRequestID: "req-7",
		HeaderTraceID:   "trace-7",
		HeaderOperator:  " counter-2 ",
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-7", got.ID)
	assert.Equal(t, "trace-7", got.TraceID)
	assert.Equal(t, "counter-2", got.Operator)
	assert.Equal(t, "req-7", w.Header().Get(HeaderRequestID))
}

func TestRequestContext_GeneratesIDs(t *testing.T) {
	r := newEngine(func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w, _ := serve(t, r, nil)

	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}

func TestErrors_RendersAppError(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(apperror.NewInsufficientStock("Amoxicillin 250", "AMX-3", 4, 1))
	})

	w, p := serve(t, r, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInsufficientStock, p.Code)
	assert.EqualValues(t, 3, p.Details["shortfall"])
}

func TestErrors_HidesUnknownCause(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(errors.New("pq: relation does not exist"))
	})

	w, p := serve(t, r, map[string]string{HeaderRequestID: "req-9"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, p.Code)
	assert.NotContains(t, w.Body.String(), "relation")
	assert.Equal(t, "req-9", p.Details["request_id"])
}

func TestRecovery_Returns500(t *testing.T) {
	r := newEngine(func(c *gin.Context) { panic("nil batch") })

	w, p := serve(t, r, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, p.Code)
}
