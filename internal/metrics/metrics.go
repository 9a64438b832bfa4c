package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"net/http"
)

var (
	// ClassificationsTotal counts served verdicts by family and outcome.
	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smishguard_classifications_total",
		Help: "Number of classified messages by serving family and verdict.",
	}, []string{"family", "verdict"})

	// OverridesTotal counts heuristic overrides by predicate.
	OverridesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smishguard_overrides_total",
		Help: "Number of verdicts forced to fraudulent by heuristic override.",
	}, []string{"reason"})

	// FeedbackTotal counts submitted feedback by usefulness.
	FeedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smishguard_feedback_total",
		Help: "Number of feedback submissions.",
	}, []string{"useful"})

	// RetrainRunsTotal counts pipeline runs by result.
	RetrainRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smishguard_retrain_runs_total",
		Help: "Number of continual-learning pipeline runs.",
	}, []string{"status"})

	// ClassifyDuration observes end-to-end classification latency.
	ClassifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smishguard_classify_duration_seconds",
		Help:    "Latency of the classification path.",
		Buckets: prometheus.DefBuckets,
	})

	// ActiveModelF1 exposes the held-out F1 of the active generation.
	ActiveModelF1 = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "smishguard_active_model_f1",
		Help: "F1 score of the currently active generation per family.",
	}, []string{"family"})
)

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
