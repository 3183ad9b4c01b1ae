package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	declarations  *prom.GaugeVec
	coverage      prom.Gauge
	undocumented  prom.Gauge
	autolinks     prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "symdoc",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "symdoc",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "symdoc",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "symdoc",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.declarations = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "symdoc",
			Name:      "declarations",
			Help:      "Top-level declarations built per module in the last build",
		}, []string{"module"})
		pr.coverage = prom.NewGauge(prom.GaugeOpts{
			Namespace: "symdoc",
			Name:      "documentation_coverage_percent",
			Help:      "Documented share of included symbols in the last build",
		})
		pr.undocumented = prom.NewGauge(prom.GaugeOpts{
			Namespace: "symdoc",
			Name:      "undocumented_symbols",
			Help:      "Undocumented symbols in the last build",
		})
		pr.autolinks = prom.NewCounter(prom.CounterOpts{
			Namespace: "symdoc",
			Name:      "autolinks_total",
			Help:      "Cross references turned into links",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.declarations, pr.coverage, pr.undocumented, pr.autolinks)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetDeclarations(module string, n int) {
	if p == nil || p.declarations == nil {
		return
	}
	p.declarations.WithLabelValues(module).Set(float64(n))
}

func (p *PrometheusRecorder) SetCoverage(percent int) {
	if p == nil || p.coverage == nil {
		return
	}
	p.coverage.Set(float64(percent))
}

func (p *PrometheusRecorder) SetUndocumented(n int) {
	if p == nil || p.undocumented == nil {
		return
	}
	p.undocumented.Set(float64(n))
}

func (p *PrometheusRecorder) AddAutolinks(n int) {
	if p == nil || p.autolinks == nil {
		return
	}
	p.autolinks.Add(float64(n))
}
