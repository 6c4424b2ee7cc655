package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "classforge"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	runDuration      prom.Histogram
	passDuration     *prom.HistogramVec
	transformResults *prom.CounterVec
	pruned           *prom.CounterVec
	workers          prom.Gauge
	runOutcome       *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.passDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of one pass over a bundle",
			Buckets:   prom.DefBuckets,
		}, []string{"bundle"})
		pr.transformResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transform_results_total",
			Help:      "Per-class transform task outcomes",
		}, []string{"transformer", "outcome"})
		pr.pruned = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transformer_pruned_total",
			Help:      "Prunable transformers removed from later passes",
		}, []string{"transformer"})
		pr.workers = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "workers",
			Help:      "Worker pool size of the last run",
		})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.runDuration, pr.passDuration, pr.transformResults, pr.pruned, pr.workers, pr.runOutcome)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePassDuration(bundle string, d time.Duration) {
	if p == nil || p.passDuration == nil {
		return
	}
	p.passDuration.WithLabelValues(bundle).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTransformOutcome(transformer string, outcome TransformOutcome) {
	if p == nil || p.transformResults == nil {
		return
	}
	p.transformResults.WithLabelValues(transformer, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPruned(transformer string) {
	if p == nil || p.pruned == nil {
		return
	}
	p.pruned.WithLabelValues(transformer).Inc()
}

func (p *PrometheusRecorder) SetWorkers(n int) {
	if p == nil || p.workers == nil {
		return
	}
	p.workers.Set(float64(n))
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcome) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}
