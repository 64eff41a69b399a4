package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is returned by handlers to short-circuit with a status code.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func BadRequest(msg string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *APIError {
	return &APIError{Code: http.StatusNotFound, Message: msg}
}

func Internal(msg string) *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: msg}
}

type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// ResolveEndpoint writes the handler's result as JSON, or its error as
// {"error": message}. A nil result with no error is 204.
func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		if result == nil {
			ctx.Status(http.StatusNoContent)
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}
