// Package prometheus instruments executors and graders with Prometheus
// metrics and writes the collected metrics to a textfile.
package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/autoeval"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Compile-time interface verification.
var (
	_ autoeval.Executor = (*Executor)(nil)
	_ autoeval.Grader   = (*Grader)(nil)
)

// Metrics holds the collectors shared by instrumented executors and graders.
type Metrics struct {
	duration *prom.HistogramVec
	failures *prom.CounterVec
	gatherer prom.Gatherer
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg *prom.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		duration: factory.NewHistogramVec(prom.HistogramOpts{
			Namespace: "autoeval",
			Subsystem: "model",
			Name:      "request_duration_seconds",
			Help:      "Duration of hosted model requests",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider", "model", "operation"}),
		failures: factory.NewCounterVec(prom.CounterOpts{
			Namespace: "autoeval",
			Subsystem: "model",
			Name:      "request_failures_total",
			Help:      "Number of failed hosted model requests",
		}, []string{"provider", "model", "operation"}),
		gatherer: reg,
	}
}

// WriteTextfile writes all registered metrics to path in the text
// exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, m.gatherer)
}

func (m *Metrics) observe(labels prom.Labels, start time.Time, err error) {
	m.duration.With(labels).Observe(time.Since(start).Seconds())
	if err != nil {
		m.failures.With(labels).Inc()
	}
}

// Executor records the duration and failures of an inner Executor.
type Executor struct {
	inner   autoeval.Executor
	metrics *Metrics
	labels  prom.Labels
}

// NewExecutor wraps inner. provider and model label the recorded series.
func (m *Metrics) NewExecutor(inner autoeval.Executor, provider, model string) *Executor {
	return &Executor{
		inner:   inner,
		metrics: m,
		labels:  prom.Labels{"provider": provider, "model": model, "operation": "evaluate"},
	}
}

// Execute delegates to the inner executor and returns its result unchanged.
func (e *Executor) Execute(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := e.inner.Execute(ctx, prompt)
	e.metrics.observe(e.labels, start, err)
	return out, err
}

// Grader records the duration and failures of an inner Grader.
type Grader struct {
	inner   autoeval.Grader
	metrics *Metrics
	labels  prom.Labels
}

// NewGrader wraps inner. provider and model label the recorded series.
func (m *Metrics) NewGrader(inner autoeval.Grader, provider, model string) *Grader {
	return &Grader{
		inner:   inner,
		metrics: m,
		labels:  prom.Labels{"provider": provider, "model": model, "operation": "grade"},
	}
}

// Grade delegates to the inner grader and returns its result unchanged.
func (g *Grader) Grade(ctx context.Context, report string) (*autoeval.Distribution, error) {
	start := time.Now()
	d, err := g.inner.Grade(ctx, report)
	g.metrics.observe(g.labels, start, err)
	return d, err
}
