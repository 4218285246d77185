package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobile-money-ledger/internal/domain/shared"
)

var kindStatus = map[shared.ErrorKind]int{
	shared.KindNotFound:          http.StatusNotFound,
	shared.KindUnauthorized:      http.StatusUnauthorized,
	shared.KindForbidden:         http.StatusForbidden,
	shared.KindInvalidArgument:   http.StatusBadRequest,
	shared.KindInsufficientFunds: http.StatusBadRequest,
	shared.KindConflict:          http.StatusConflict,
	shared.KindInternal:          http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind shared.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorBody is the error envelope shared by handlers and middleware
func ErrorBody(c *gin.Context, code, message string) gin.H {
	body := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		body["correlation_id"] = correlationID
	}
	return body
}

// abortWithError stops the chain with the status and reason of err.
// Internal causes are never echoed to the client.
func abortWithError(c *gin.Context, err *shared.Error) {
	message := err.Message
	if err.Kind == shared.KindInternal {
		message = "An internal server error occurred"
	}
	c.AbortWithStatusJSON(StatusFor(err.Kind), ErrorBody(c, string(err.Reason), message))
}
