// Package metrics provides Prometheus metrics for irisbridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "irisbridge"
)

// Pipeline metrics
var (
	// RunsTotal counts pipeline runs by outcome ("ok", "empty", "failed").
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks pipeline run duration.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// IncidentsQueried counts incident ids returned by the vendor query.
	IncidentsQueried = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "incidents_queried_total",
			Help:      "Total number of incident ids returned by vendor queries",
		},
	)

	// IncidentsDeduplicated counts incidents skipped by the cache filter.
	IncidentsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "incidents_deduplicated_total",
			Help:      "Total number of incidents skipped because they were already cached",
		},
	)

	// BehaviorsJoined counts behavior-to-incident associations made.
	BehaviorsJoined = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "behaviors_joined_total",
			Help:      "Total number of behavior-to-incident associations",
		},
	)
)

// Dispatch metrics
var (
	// AlertsDispatched counts alerts accepted by IRIS.
	AlertsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "alerts_total",
			Help:      "Total number of alerts accepted by the sink",
		},
	)

	// DispatchErrors counts per-alert dispatch failures.
	DispatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "errors_total",
			Help:      "Total number of alert dispatch failures",
		},
	)

	// CacheWriteErrors counts failed cache writes after dispatch.
	CacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "write_errors_total",
			Help:      "Total number of failed cache entry writes",
		},
	)
)
