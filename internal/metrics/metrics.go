// Package metrics exposes Prometheus instrumentation for pipeline runs.
//
// Available metrics:
//   - renovate_pipeline_runs_total: pipeline runs (counter)
//     Labels: outcome (success, user_error, failure)
//   - renovate_pipeline_duration_seconds: end-to-end run time (histogram)
//   - renovate_model_mse: test-set mean squared error of the last successful run (gauge)
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeUserError = "user_error"
	OutcomeFailure   = "failure"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renovate_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "renovate_pipeline_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ModelMSE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "renovate_model_mse",
			Help: "Test-set mean squared error of the most recent successful run",
		},
	)
)

func init() {
	for _, outcome := range []string{OutcomeSuccess, OutcomeUserError, OutcomeFailure} {
		PipelineRuns.WithLabelValues(outcome)
	}
}

// RecordRun records one pipeline run. mse is ignored unless the run succeeded.
func RecordRun(outcome string, duration time.Duration, mse float64) {
	PipelineRuns.WithLabelValues(outcome).Inc()
	PipelineDuration.Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		ModelMSE.Set(mse)
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
