package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every MolMatch metric. A nil *AppMetrics is valid and
// records nothing, so components can run without a collector.
type AppMetrics struct {
	// Matching
	MatchRunsTotal        CounterVec
	MatchDuration         HistogramVec
	MatchStatesExpanded   HistogramVec
	MatchMappingsReturned HistogramVec
	MatchActive           GaugeVec
	MatchCacheHitsTotal   CounterVec

	// Jobs
	JobsProcessedTotal CounterVec
	JobDuration        HistogramVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

var (
	MatchDurationBuckets  = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60}
	StatesExpandedBuckets = []float64{10, 100, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8}
	MappingCountBuckets   = []float64{0, 1, 2, 5, 10, 50, 100, 1000, 10000}
	HTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// NewAppMetrics registers all metrics with collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		MatchRunsTotal:        collector.RegisterCounter("match_runs_total", "Match runs by mode and outcome status", "mode", "status"),
		MatchDuration:         collector.RegisterHistogram("match_duration_seconds", "Wall-clock time of a match run", MatchDurationBuckets, "mode"),
		MatchStatesExpanded:   collector.RegisterHistogram("match_states_expanded", "Search states expanded per run", StatesExpandedBuckets, "mode"),
		MatchMappingsReturned: collector.RegisterHistogram("match_mappings_returned", "Mappings returned per run", MappingCountBuckets, "mode"),
		MatchActive:           collector.RegisterGauge("match_active", "Match runs in progress"),
		MatchCacheHitsTotal:   collector.RegisterCounter("match_cache_hits_total", "Result cache lookups", "result"),

		JobsProcessedTotal: collector.RegisterCounter("jobs_processed_total", "Batch jobs handled by the worker", "status"),
		JobDuration:        collector.RegisterHistogram("job_duration_seconds", "Batch job handling time", MatchDurationBuckets),

		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "HTTP requests", "method", "path", "status"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", HTTPDurationBuckets, "method", "path"),
	}
}

// RecordMatch records one finished run.
func (m *AppMetrics) RecordMatch(mode, status string, elapsed time.Duration, statesExpanded int64, mappings int) {
	if m == nil {
		return
	}
	m.MatchRunsTotal.WithLabelValues(mode, status).Inc()
	m.MatchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	m.MatchStatesExpanded.WithLabelValues(mode).Observe(float64(statesExpanded))
	m.MatchMappingsReturned.WithLabelValues(mode).Observe(float64(mappings))
}

// TrackActive increments the in-flight gauge and returns its release.
func (m *AppMetrics) TrackActive() func() {
	if m == nil {
		return func() {}
	}
	g := m.MatchActive.WithLabelValues()
	g.Inc()
	return g.Dec
}

// RecordCacheLookup records a cache hit, miss or error ("hit", "miss", "error").
func (m *AppMetrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.MatchCacheHitsTotal.WithLabelValues(result).Inc()
}

// RecordJob records a handled job with status "completed", "failed" or "skipped".
func (m *AppMetrics) RecordJob(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobsProcessedTotal.WithLabelValues(status).Inc()
	m.JobDuration.WithLabelValues().Observe(elapsed.Seconds())
}

// RecordHTTPRequest records one served request. path should be the route
// template, not the raw URL, to keep cardinality bounded.
func (m *AppMetrics) RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

//Personal.AI order the ending
