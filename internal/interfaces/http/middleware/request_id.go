// Package middleware holds the gin middleware chain of the MolMatch API:
// request IDs, access logging, metrics, panic recovery, CORS and a
// per-client rate limit.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

const (
	HeaderRequestID = "X-Request-ID"

	requestIDKey    = "molmatch.request_id"
	maxRequestIDLen = 128
)

// RequestID propagates the caller's X-Request-ID or assigns a new UUID, and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// abortWithError writes the API error body. Handlers use the same shape.
func abortWithError(c *gin.Context, status int, code errors.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":       code,
		"message":    message,
		"request_id": GetRequestID(c),
	})
}

//Personal.AI order the ending
