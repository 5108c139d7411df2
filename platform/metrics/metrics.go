// Package metrics holds the prometheus collectors for scoring and training.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LeadsQualified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscore_leads_qualified_total",
			Help: "Total number of qualified leads by label",
		},
		[]string{"label"},
	)

	LeadScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadscore_lead_score",
			Help:    "Distribution of headline lead scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	EnrichmentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadscore_enrichment_failures_total",
			Help: "Enrichment calls that failed and fell back to neutral signals",
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscore_training_runs_total",
			Help: "Total number of training runs by result status",
		},
		[]string{"status"},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadscore_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	ModelAccuracy = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadscore_model_accuracy",
			Help:    "Validation accuracy of trained models",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	OutcomesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscore_outcomes_recorded_total",
			Help: "Total number of recorded outcomes by type",
		},
		[]string{"outcome_type"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadscore_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveQualification records one scored lead.
func ObserveQualification(label string, score int) {
	LeadsQualified.WithLabelValues(label).Inc()
	LeadScore.Observe(float64(score))
}

// ObserveTraining records one training run. Accuracy is only observed for
// runs that reached validation.
func ObserveTraining(status string, started time.Time, accuracy float64, validated bool) {
	TrainingRuns.WithLabelValues(status).Inc()
	TrainingDuration.Observe(time.Since(started).Seconds())
	if validated {
		ModelAccuracy.Observe(accuracy)
	}
}

// ObserveHTTPRequest records one served request. Route is the matched
// pattern, not the raw path.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
