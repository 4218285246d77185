package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/mobile-money-ledger/internal/domain/shared"
)

// Recovery converts a panic into an Internal error response.
// A panic inside a unit of work has already rolled the transaction back, but a
// handler that panics after writing its response keeps that response.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			err := panicError(r)
			logger.Error("Panic recovered",
				"error", err.Err,
				"stack", string(debug.Stack()),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"correlation_id", GetCorrelationID(c),
				"response_written", c.Writer.Written(),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			abortWithError(c, err)
		}()

		c.Next()
	}
}

func panicError(r any) *shared.Error {
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}
	return shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "request handler panicked", cause)
}
