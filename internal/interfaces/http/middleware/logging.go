package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are not logged (probes, /metrics).
	SkipPaths []string
	// SlowThreshold logs successful requests above it at Warn. 0 disables it.
	SlowThreshold time.Duration
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// RequestLogging logs one line per request and stores a request-scoped
// logger, carrying the request ID, in the request context.
func RequestLogging(logger logging.Logger, cfg LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		reqLog := logger.With(logging.String(logging.FieldRequestID, GetRequestID(c)))
		c.Request = c.Request.WithContext(logging.IntoContext(c.Request.Context(), reqLog))

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Int64(logging.FieldDuration, elapsed.Milliseconds()),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			reqLog.Error("HTTP request completed with server error", fields...)
		case status >= 400:
			reqLog.Warn("HTTP request completed with client error", fields...)
		case cfg.SlowThreshold > 0 && elapsed >= cfg.SlowThreshold:
			reqLog.Warn("HTTP request completed (slow)", fields...)
		default:
			reqLog.Info("HTTP request completed", fields...)
		}
	}
}

//Personal.AI order the ending
