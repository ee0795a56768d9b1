package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudform_predictions_total",
		Help: "Total number of successful predictions, labelled by verdict.",
	}, []string{"verdict"})

	PredictionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraudform_prediction_failures_total",
		Help: "Total number of prediction requests that failed for any reason.",
	})

	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraudform_prediction_duration_ms",
		Help:    "Round-trip latency of prediction requests in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	SubmissionsIgnored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraudform_submissions_ignored_total",
		Help: "Total number of submit triggers ignored because a submission was in flight.",
	})

	SubmissionInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fraudform_submission_in_flight",
		Help: "1 while a prediction request is in flight, otherwise 0.",
	})

	ConfigReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudform_config_reloads_total",
		Help: "Total number of config reload attempts, labelled by status.",
	}, []string{"status"})
)
