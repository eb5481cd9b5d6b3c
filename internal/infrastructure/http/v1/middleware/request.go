// Package middleware provides the gin middleware chain of the API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	appctx "pharmapos/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
	HeaderOperator  = "X-Operator"
)

// RequestContext attaches an appctx.Request to every request. IDs sent by
// the till are kept; missing ones are generated. An active otel span wins
// over the X-Trace-ID header.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		req := appctx.Request{
			ID:       headerOr(c, HeaderRequestID, uuid.NewString),
			TraceID:  headerOr(c, HeaderTraceID, uuid.NewString),
			Operator: strings.TrimSpace(c.GetHeader(HeaderOperator)),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			req.TraceID = sc.TraceID().String()
		}

		c.Request = c.Request.WithContext(appctx.WithRequest(ctx, req))
		c.Header(HeaderRequestID, req.ID)
		c.Header(HeaderTraceID, req.TraceID)

		c.Next()
	}
}

func headerOr(c *gin.Context, name string, gen func() string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	return gen()
}
