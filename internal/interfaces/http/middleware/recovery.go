package middleware

import (
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// Recovery turns a handler panic into a logged 500 with the API error body.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		logger.Error("panic recovered",
			logging.String(logging.FieldRequestID, GetRequestID(c)),
			logging.String("path", c.Request.URL.Path),
			logging.Any("panic", rec),
			logging.String("stack", string(debug.Stack())))
		abortWithError(c, http.StatusInternalServerError, errors.ErrCodeInternal, "internal server error")
	})
}

//Personal.AI order the ending
