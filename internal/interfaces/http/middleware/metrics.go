package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/prometheus"
)

// unmatchedRoute labels requests that hit no route, keeping the path label
// bounded.
const unmatchedRoute = "unmatched"

// Metrics records request count and latency by route template.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
