// Package monitoring exposes Prometheus metrics for SVM training, grid search
// and prediction.
//
// A nil *Collector is valid and records nothing, so models can be built
// without a registry.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the metric name prefix.
const Namespace = "svmkit"

// Fit results used as the "result" label.
const (
	FitConverged    = "converged"
	FitNotConverged = "not_converged"
	FitFailed       = "error"
)

// Candidate results used as the "result" label.
const (
	CandidateScored = "scored"
	CandidateFailed = "failed"
)

// Collector holds the Prometheus metrics of one or more SVM models.
type Collector struct {
	Fits           *prometheus.CounterVec   // Solver fits by svm_type and result
	FitDuration    *prometheus.HistogramVec // Duration of a single solver fit
	Candidates     *prometheus.CounterVec   // Grid-search combinations by result
	Searches       prometheus.Counter       // Completed grid searches
	SearchDuration prometheus.Histogram     // Duration of a whole grid search
	BestError      prometheus.Gauge         // Mean held-out error of the last selected combination
	Predictions    prometheus.Counter       // Predicted samples
}

// New creates a Collector registered on the default registry.
func New() *Collector {
	return NewCollector(prometheus.DefaultRegisterer)
}

// NewCollector creates a Collector registered on registerer.
// テストでは prometheus.NewRegistry() を渡して分離する。
func NewCollector(registerer prometheus.Registerer) *Collector {
	factory := promauto.With(registerer)
	return &Collector{
		Fits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fits_total",
			Help:      "Total number of solver fits",
		}, []string{"svm_type", "result"}),
		FitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fit_duration_seconds",
			Help:      "Duration of a single solver fit in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"svm_type"}),
		Candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_candidates_total",
			Help:      "Total number of scored grid-search combinations",
		}, []string{"result"}),
		Searches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "searches_total",
			Help:      "Total number of completed grid searches",
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of a cross-validated grid search in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		}),
		BestError: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "search_best_error",
			Help:      "Mean held-out error of the last selected combination",
		}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "predictions_total",
			Help:      "Total number of predicted samples",
		}),
	}
}

// ObserveFit records one solver fit.
func (c *Collector) ObserveFit(svmType, result string, d time.Duration) {
	if c == nil {
		return
	}
	c.Fits.WithLabelValues(svmType, result).Inc()
	c.FitDuration.WithLabelValues(svmType).Observe(d.Seconds())
}

// ObserveCandidate records one scored combination. Combinations whose folds
// all failed are counted as failed.
func (c *Collector) ObserveCandidate(failed bool) {
	if c == nil {
		return
	}
	result := CandidateScored
	if failed {
		result = CandidateFailed
	}
	c.Candidates.WithLabelValues(result).Inc()
}

// ObserveSearch records a finished grid search.
func (c *Collector) ObserveSearch(d time.Duration, bestError float64) {
	if c == nil {
		return
	}
	c.Searches.Inc()
	c.SearchDuration.Observe(d.Seconds())
	c.BestError.Set(bestError)
}

// AddPredictions adds n predicted samples.
func (c *Collector) AddPredictions(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Predictions.Add(float64(n))
}
