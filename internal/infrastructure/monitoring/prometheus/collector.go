// Package prometheus exposes MolMatch metrics through a small registration
// facade over prometheus/client_golang. Callers hold CounterVec, GaugeVec
// and HistogramVec interfaces so a failed registration degrades to no-ops
// rather than panicking in a request path.
package prometheus

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
)

// MetricsCollector owns a private registry and hands out metric vectors.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	// Handler serves the registry in the Prometheus exposition format.
	Handler() http.Handler
	// Gatherer exposes the registry for scraping in tests.
	Gatherer() prometheus.Gatherer
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

type Histogram interface {
	Observe(value float64)
}

// CollectorConfig configures the registry.
type CollectorConfig struct {
	Namespace            string
	Subsystem            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
	ConstLabels          map[string]string
}

// DefaultBuckets is used by RegisterHistogram when no buckets are given.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

type collector struct {
	registry *prometheus.Registry
	cfg      CollectorConfig
	logger   logging.Logger

	mu    sync.Mutex
	known map[string]prometheus.Collector
}

// NewMetricsCollector builds a collector with its own registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("prometheus: namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	reg := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		reg.MustRegister(collectors.NewGoCollector())
	}
	return &collector{registry: reg, cfg: cfg, logger: logger, known: make(map[string]prometheus.Collector)}, nil
}

func (c *collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *collector) Gatherer() prometheus.Gatherer { return c.registry }

// register returns the vector already registered under name when there is
// one of the same type, so repeated registration is idempotent.
func register[V prometheus.Collector](c *collector, name, kind string, vec V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fq := prometheus.BuildFQName(c.cfg.Namespace, c.cfg.Subsystem, name)
	if existing, ok := c.known[fq]; ok {
		if v, ok := existing.(V); ok {
			return v, true
		}
		c.logger.Warn("metric type mismatch", logging.String("name", fq), logging.String("type", kind))
		var zero V
		return zero, false
	}
	if err := c.registry.Register(vec); err != nil {
		c.logger.Error("failed to register metric", logging.String("name", fq), logging.String("type", kind), logging.Err(err))
		var zero V
		return zero, false
	}
	c.known[fq] = vec
	return vec, true
}

func (c *collector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem,
		Name: name, Help: help, ConstLabels: c.cfg.ConstLabels,
	}, labels)
	if v, ok := register(c, name, "counter", vec); ok {
		return counterVec{v}
	}
	return noopCounterVec{}
}

func (c *collector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem,
		Name: name, Help: help, ConstLabels: c.cfg.ConstLabels,
	}, labels)
	if v, ok := register(c, name, "gauge", vec); ok {
		return gaugeVec{v}
	}
	return noopGaugeVec{}
}

func (c *collector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem,
		Name: name, Help: help, ConstLabels: c.cfg.ConstLabels, Buckets: buckets,
	}, labels)
	if v, ok := register(c, name, "histogram", vec); ok {
		return histogramVec{v}
	}
	return noopHistogramVec{}
}

// ─────────────────────────────────────────────────────────────────────────────
// Adapters
// ─────────────────────────────────────────────────────────────────────────────

type counterVec struct{ vec *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.vec.WithLabelValues(lvs...) }

type gaugeVec struct{ vec *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.vec.WithLabelValues(lvs...) }

type histogramVec struct{ vec *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram { return v.vec.WithLabelValues(lvs...) }

// No-op vectors stand in for a vector whose registration failed.
type noopCounterVec struct{}
type noopGaugeVec struct{}
type noopHistogramVec struct{}

func (noopCounterVec) WithLabelValues(...string) Counter     { return noop{} }
func (noopGaugeVec) WithLabelValues(...string) Gauge         { return noop{} }
func (noopHistogramVec) WithLabelValues(...string) Histogram { return noop{} }

type noop struct{}

func (noop) Inc()            {}
func (noop) Dec()            {}
func (noop) Add(float64)     {}
func (noop) Set(float64)     {}
func (noop) Observe(float64) {}

// ─────────────────────────────────────────────────────────────────────────────
// Timer
// ─────────────────────────────────────────────────────────────────────────────

// Timer observes elapsed seconds into a histogram.
type Timer struct {
	h     Histogram
	start time.Time
}

func NewTimer(h Histogram) *Timer { return &Timer{h: h, start: time.Now()} }

// ObserveDuration records and returns the elapsed time.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.h != nil {
		t.h.Observe(d.Seconds())
	}
	return d
}

//Personal.AI order the ending
