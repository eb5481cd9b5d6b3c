package middleware

import (
	"github.com/gin-gonic/gin"

	"pharmapos/internal/core/apperror"
	appctx "pharmapos/internal/core/context"
	"pharmapos/internal/infrastructure/http/v1/dto"
	"pharmapos/pkg/logger"
)

// Errors renders the last error a handler attached with c.Error.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		writeError(c)
	}
}

func writeError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	ctx := c.Request.Context()
	err := c.Errors.Last().Err

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		logger.Error(ctx, "unclassified error", "error", err)
		appErr = apperror.NewInternal(err)
	}

	p := dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	if appErr.Code == apperror.CodeInternal {
		// Internal causes stay in the log; the client gets the request ID to quote.
		p.Details = map[string]any{"request_id": appctx.RequestID(ctx)}
		if ok {
			logger.Error(ctx, "internal error", "error", appErr.Err)
		}
	} else if appErr.Err != nil {
		logger.Warn(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
	}

	c.JSON(appErr.HTTPStatus, p)
}
