// Package http assembles the MolMatch gin engine and the server that runs it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolMatch/internal/interfaces/http/handlers"
	"github.com/turtacn/MolMatch/internal/interfaces/http/middleware"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree. Nil handlers leave their routes unmounted.
type RouterConfig struct {
	MatchHandler  *handlers.MatchHandler
	HealthHandler *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	// MetricsPath defaults to /metrics.
	MetricsPath string

	CORSOrigins []string
	// RateLimiter guards /api/v1 when set.
	RateLimiter middleware.RateLimiter
}

// NewRouter builds the gin engine:
//
//	GET  /healthz, /readyz     probes
//	GET  /metrics              Prometheus exposition
//	POST /api/v1/match         synchronous match
//	POST /api/v1/jobs          batch job submission
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()),
		middleware.Metrics(cfg.Metrics),
	)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Code: errors.ErrCodeNotFound, Message: "route not found", RequestID: middleware.GetRequestID(c),
		})
	})

	if h := cfg.HealthHandler; h != nil {
		r.GET("/healthz", h.Liveness)
		r.GET("/readyz", h.Readiness)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.RateLimiter != nil {
		api.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	if h := cfg.MatchHandler; h != nil {
		api.POST("/match", h.Match)
		api.POST("/jobs", h.Submit)
	}
	return r
}

//Personal.AI order the ending
