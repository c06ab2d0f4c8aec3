package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const promNamespace = "vpbackend"

var (
	AggregateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(promNamespace, "analysis", "aggregate_duration_seconds"),
		Help:    "Duration of on-the-fly analysis aggregation in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{})
	AggregateRunCount = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(promNamespace, "analysis", "aggregate_run_count"),
		Help:    "Number of runs folded into one aggregation request",
		Buckets: prometheus.LinearBuckets(1, 5, 10),
	}, []string{})
	RecomputeDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(promNamespace, "analysis", "recompute_dispatched_total"),
		Help: "Recompute jobs dispatched to the work queue",
	}, []string{})
	AnalysisCacheMiss = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(promNamespace, "analysis", "cache_miss_total"),
		Help: "Analysis reads that fell through to postgres",
	}, []string{"reason"})
)
