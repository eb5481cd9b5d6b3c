package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"pharmapos/pkg/logger"
)

// AccessLog stores a request-scoped logger in the context, so handlers and
// the sale service log with the request's fields, and writes one line per
// request once it completes.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		reqLog := log.ForContext(c.Request.Context())
		c.Request = c.Request.WithContext(logger.Into(c.Request.Context(), reqLog))

		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(started).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.Last().Error())
		}

		if status >= 500 {
			reqLog.Warnw("http request", kv...)
			return
		}
		reqLog.Infow("http request", kv...)
	}
}
