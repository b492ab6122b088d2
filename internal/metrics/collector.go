// Package metrics provides internal Prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates the process's Prometheus metrics: generation
// runs, model calls, validator failures, and cache effectiveness.
type Collector struct {
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	reasksPerRun     prometheus.Histogram
	unresolvedPerRun prometheus.Histogram

	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	validatorFailures *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers the metric families under the given namespace
// on the default registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of generation runs",
		},
		[]string{"status"}, // ok, refrained, failed
	)

	c.runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end generation run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	c.reasksPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reasks_per_run",
			Help:      "Number of corrective re-asks issued per run",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		},
	)

	c.unresolvedPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unresolved_failures_per_run",
			Help:      "Validation failures still unresolved when a run finishes",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	c.llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"model", "status"},
	)

	c.llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	c.llmTokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"model"},
	)

	c.validatorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validator_failures_total",
			Help:      "Total validator failures by validator and corrective action",
		},
		[]string{"validator", "action"},
	)

	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordRun records one finished generation run.
func (c *Collector) RecordRun(status string, duration time.Duration, reasks, unresolved int) {
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	c.reasksPerRun.Observe(float64(reasks))
	c.unresolvedPerRun.Observe(float64(unresolved))
}

// RecordValidatorFailure records one validator failure.
func (c *Collector) RecordValidatorFailure(validator, action string) {
	c.validatorFailures.WithLabelValues(validator, action).Inc()
}

// RecordRequest implements llm.MetricsCollector.
func (c *Collector) RecordRequest(model string, duration time.Duration, success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	c.llmRequestsTotal.WithLabelValues(model, status).Inc()
	c.llmRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordTokens implements llm.MetricsCollector.
func (c *Collector) RecordTokens(model string, tokens int) {
	c.llmTokensUsed.WithLabelValues(model).Add(float64(tokens))
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}
