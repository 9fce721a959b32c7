package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fdicchat_questions_total",
			Help: "Total number of questions answered end to end.",
		},
		[]string{"provider"},
	)
	generationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fdicchat_generation_failures_total",
			Help: "Total number of failed SQL generation calls to the LLM provider.",
		},
		[]string{"provider"},
	)
	validationRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fdicchat_validation_rejections_total",
			Help: "Total number of generated queries rejected by the SQL safety validator.",
		},
	)
	queryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fdicchat_query_failures_total",
			Help: "Total number of failed query executions.",
		},
		[]string{"timeout"},
	)
	emptyResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fdicchat_empty_results_total",
			Help: "Total number of queries that executed successfully but returned no rows.",
		},
	)
	pipelineDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fdicchat_pipeline_duration_seconds",
			Help:    "End-to-end question pipeline latency in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		},
	)
	ingestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fdicchat_ingest_runs_total",
			Help: "Total number of FDIC ingestion runs by outcome.",
		},
		[]string{"outcome"},
	)
	ingestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fdicchat_ingest_records_total",
			Help: "Total number of FDIC records upserted per table.",
		},
		[]string{"table"},
	)
	ingestRunDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fdicchat_ingest_run_duration_seconds",
			Help:    "FDIC ingestion run duration in seconds.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		generationFailuresTotal,
		validationRejectionsTotal,
		queryFailuresTotal,
		emptyResultsTotal,
		pipelineDurationSeconds,
		ingestRunsTotal,
		ingestRecordsTotal,
		ingestRunDurationSeconds,
	)
}

func ObservePipeline(provider string, elapsed time.Duration) {
	questionsTotal.WithLabelValues(provider).Inc()
	pipelineDurationSeconds.Observe(elapsed.Seconds())
}

func IncrementGenerationFailure(provider string) {
	generationFailuresTotal.WithLabelValues(provider).Inc()
}

func IncrementValidationRejection() {
	validationRejectionsTotal.Inc()
}

func IncrementQueryFailure(timeout bool) {
	label := "false"
	if timeout {
		label = "true"
	}
	queryFailuresTotal.WithLabelValues(label).Inc()
}

func IncrementEmptyResult() {
	emptyResultsTotal.Inc()
}

func ObserveIngestRun(succeeded bool, elapsed time.Duration) {
	outcome := "success"
	if !succeeded {
		outcome = "failure"
	}
	ingestRunsTotal.WithLabelValues(outcome).Inc()
	ingestRunDurationSeconds.Observe(elapsed.Seconds())
}

func AddIngestRecords(table string, count int) {
	if count > 0 {
		ingestRecordsTotal.WithLabelValues(table).Add(float64(count))
	}
}
