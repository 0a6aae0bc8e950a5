// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SchemaLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_schema_loads_total",
			Help: "Form definition load attempts per source and result",
		},
		[]string{"source", "result"},
	)

	SchemaCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_schema_cache_total",
			Help: "Schema cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Survey submissions by mode and result",
		},
		[]string{"mode", "result"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survey_submission_duration_seconds",
			Help:    "End to end submission duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)
