package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// HealthChecker is a dependency probed by the readiness endpoint.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

type checkerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkerFunc) Name() string                    { return c.name }
func (c checkerFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// NewChecker adapts a ping function such as redis.Client.Ping.
func NewChecker(name string, fn func(ctx context.Context) error) HealthChecker {
	return checkerFunc{name: name, fn: fn}
}

// HealthHandler serves the probes. Concurrent readiness probes share one
// round of dependency checks.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
	timeout  time.Duration

	draining atomic.Bool
	probes   singleflight.Group
}

func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers, version: version, startAt: time.Now(), timeout: 5 * time.Second}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Liveness handles GET /healthz. It never touches dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// SetDraining makes readiness fail so load balancers stop routing new
// matches while in-flight ones finish.
func (h *HealthHandler) SetDraining(v bool) { h.draining.Store(v) }

// Readiness handles GET /readyz: 200 when every dependency answers, 503
// otherwise or while draining.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.draining.Load() {
		c.JSON(http.StatusServiceUnavailable, ReadinessResponse{Status: "draining"})
		return
	}
	// The shared round must not die with the first caller's request.
	v, _, _ := h.probes.Do("readyz", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.timeout)
		defer cancel()
		return h.checkAll(ctx), nil
	})
	components, _ := v.(map[string]ComponentCheck)

	resp := ReadinessResponse{Status: "ready", Components: components}
	code := http.StatusOK
	for _, cc := range components {
		if cc.Status != "healthy" {
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(code, resp)
}

func (h *HealthHandler) checkAll(ctx context.Context) map[string]ComponentCheck {
	if len(h.checkers) == 0 {
		return nil
	}
	results := make(map[string]ComponentCheck, len(h.checkers))
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, hc := range h.checkers {
		hc := hc
		g.Go(func() error {
			start := time.Now()
			err := hc.Check(ctx)
			cc := ComponentCheck{Status: "healthy", Latency: time.Since(start).Truncate(time.Microsecond).String()}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}
			mu.Lock()
			results[hc.Name()] = cc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

//Personal.AI order the ending
