package analytics

// Package analytics collects per-request statistics for the MCP dispatcher.
// Counters are exported to Prometheus and mirrored in memory for /stats.

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

const topTargetsLimit = 10

// Collector handles analytics collection and metrics
type Collector struct {
	registry *prometheus.Registry

	// Prometheus metrics
	totalCalls  *prometheus.CounterVec
	callLatency *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	activeCalls prometheus.Gauge

	stats   *Stats
	mu      sync.RWMutex
	enabled bool
}

// Stats holds aggregated statistics
type Stats struct {
	TotalCalls       int64            `json:"total_calls"`
	TotalErrors      int64            `json:"total_errors"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
	CallsByMethod    map[string]int64 `json:"calls_by_method"`
	CallsByTarget    map[string]int64 `json:"calls_by_target"`
	CallsByTransport map[string]int64 `json:"calls_by_transport"`
	ErrorsByCode     map[string]int64 `json:"errors_by_code"`
	TopTargets       []TargetStats    `json:"top_targets"`
	StartedAt        time.Time        `json:"started_at"`
}

// TargetStats counts calls against one tool, prompt or resource
type TargetStats struct {
	Target string `json:"target"`
	Calls  int64  `json:"calls"`
}

func newStats() *Stats {
	return &Stats{
		CallsByMethod:    make(map[string]int64),
		CallsByTarget:    make(map[string]int64),
		CallsByTransport: make(map[string]int64),
		ErrorsByCode:     make(map[string]int64),
		TopTargets:       []TargetStats{},
		StartedAt:        time.Now(),
	}
}

// NewCollector creates a new analytics collector. Metrics are registered on a
// private registry so several collectors can coexist in one process.
func NewCollector(enabled bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		enabled:  enabled,
		stats:    newStats(),
	}

	c.totalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_mcp_requests_total",
			Help: "Total number of dispatched MCP requests",
		},
		[]string{"method", "transport", "status"},
	)

	c.callLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_mcp_request_duration_seconds",
			Help:    "MCP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	c.errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_mcp_errors_total",
			Help: "Total number of JSON-RPC error responses",
		},
		[]string{"method", "code"},
	)

	c.activeCalls = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weather_mcp_active_requests",
			Help: "Number of requests currently being served",
		},
	)

	c.registry.MustRegister(
		c.totalCalls,
		c.callLatency,
		c.errors,
		c.activeCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if enabled {
		log.Info().Bool("enabled", enabled).Msg("Analytics collector initialized")
	} else {
		log.Info().Msg("Analytics collector disabled")
	}

	return c
}

// Registry returns the registry backing /metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether events are being recorded
func (c *Collector) Enabled() bool {
	return c.enabled
}

// RecordCall records one dispatched request
func (c *Collector) RecordCall(event *types.CallEvent) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	latencyMs := float64(event.Duration) / float64(time.Millisecond)

	c.stats.TotalCalls++
	c.stats.CallsByMethod[event.Method]++
	c.stats.CallsByTransport[event.Transport]++
	if event.Target != "" {
		c.stats.CallsByTarget[event.Target]++
	}

	status := "success"
	if !event.Success {
		status = "error"
		code := strconv.Itoa(event.ErrorCode)
		c.stats.TotalErrors++
		c.stats.ErrorsByCode[code]++
		c.errors.WithLabelValues(event.Method, code).Inc()
	}

	// running average
	c.stats.AvgLatencyMs = (c.stats.AvgLatencyMs*float64(c.stats.TotalCalls-1) + latencyMs) / float64(c.stats.TotalCalls)

	c.totalCalls.WithLabelValues(event.Method, event.Transport, status).Inc()
	c.callLatency.WithLabelValues(event.Method).Observe(event.Duration.Seconds())

	log.Debug().
		Str("method", event.Method).
		Str("target", event.Target).
		Str("transport", event.Transport).
		Float64("latency_ms", latencyMs).
		Bool("success", event.Success).
		Msg("Call event recorded")
}

// StartCall increments active calls counter
func (c *Collector) StartCall() {
	if !c.enabled {
		return
	}
	c.activeCalls.Inc()
}

// EndCall decrements active calls counter
func (c *Collector) EndCall() {
	if !c.enabled {
		return
	}
	c.activeCalls.Dec()
}

// GetStats returns a snapshot of the current statistics
func (c *Collector) GetStats() *Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := &Stats{
		TotalCalls:       c.stats.TotalCalls,
		TotalErrors:      c.stats.TotalErrors,
		AvgLatencyMs:     c.stats.AvgLatencyMs,
		CallsByMethod:    copyCounts(c.stats.CallsByMethod),
		CallsByTarget:    copyCounts(c.stats.CallsByTarget),
		CallsByTransport: copyCounts(c.stats.CallsByTransport),
		ErrorsByCode:     copyCounts(c.stats.ErrorsByCode),
		TopTargets:       c.computeTopTargets(),
		StartedAt:        c.stats.StartedAt,
	}

	return snapshot
}

// computeTopTargets returns the busiest targets, ties broken by name
func (c *Collector) computeTopTargets() []TargetStats {
	targets := make([]TargetStats, 0, len(c.stats.CallsByTarget))
	for target, calls := range c.stats.CallsByTarget {
		targets = append(targets, TargetStats{Target: target, Calls: calls})
	}

	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Calls != targets[j].Calls {
			return targets[i].Calls > targets[j].Calls
		}
		return targets[i].Target < targets[j].Target
	})

	if len(targets) > topTargetsLimit {
		targets = targets[:topTargetsLimit]
	}

	return targets
}

// Reset resets all statistics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = newStats()

	log.Info().Msg("Analytics statistics reset")
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
