package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"pharmapos/internal/core/apperror"
	"pharmapos/pkg/logger"
)

// Recovery turns a handler panic into a 500. The stack goes to the log
// only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.Error(c.Request.Context(), "handler panicked",
				"panic", rec,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
			c.Abort()
			writeError(c)
		}()
		c.Next()
	}
}
