// Package prompush implements Prometheus backends for the metrics package.
//
// Collectors are registered on a caller-supplied registry. Backend pushes
// that registry to a Pushgateway on Flush, for one-shot `run` invocations;
// NewScrapeBackend leaves the registry to be served by promhttp, for the
// long-running `serve` command.
package prompush

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rotisserie/eris"

	"energyetl/internal/metrics"
)

// Backend is a Prometheus implementation of metrics.Backend.
type Backend struct {
	gatewayURL string // empty for scrape backends
	jobName    string
	grouping   map[string]string
	reg        *prometheus.Registry

	stepCounter    *prometheus.CounterVec
	stepDuration   *prometheus.SummaryVec
	recordCounter  *prometheus.CounterVec
	batchCounter   prometheus.Counter
	qualityCounter *prometheus.CounterVec
}

// NewBackend constructs a Pushgateway backend. runID, when non-empty, is
// added to the push grouping key so concurrent runs do not overwrite each
// other.
func NewBackend(jobName, gatewayURL, runID string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, eris.New("prompush: gateway URL is required")
	}
	b, err := newBackend(prometheus.NewRegistry(), jobName)
	if err != nil {
		return nil, err
	}
	b.gatewayURL = gatewayURL
	if runID != "" {
		b.grouping = map[string]string{"run_id": runID}
	}
	return b, nil
}

// NewScrapeBackend registers the collectors on reg and never pushes.
func NewScrapeBackend(reg *prometheus.Registry, jobName string) (*Backend, error) {
	return newBackend(reg, jobName)
}

func newBackend(reg *prometheus.Registry, jobName string) (*Backend, error) {
	if jobName == "" {
		jobName = "energyetl"
	}
	b := &Backend{
		jobName: jobName,
		reg:     reg,
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Enrichment stage executions by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Enrichment stage duration in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record counts by kind (loaded, skipped, <stage>_dropped, exported).",
		}, []string{"kind"}),
		batchCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Export batches flushed to the sink.",
		}),
		qualityCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.QualityWarnings,
			Help: "Data-quality warnings by kind.",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{
		b.stepCounter, b.stepDuration, b.recordCounter, b.batchCounter, b.qualityCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, eris.Wrap(err, "prompush: register collector")
		}
	}
	return b, nil
}

// Registry returns the registry the collectors live on.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RecordsTotal:
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.BatchesTotal:
		b.batchCounter.Add(delta)
	case metrics.QualityWarnings:
		b.qualityCounter.WithLabelValues(labels["kind"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway. Scrape backends return nil.
func (b *Backend) Flush() error {
	if b.gatewayURL == "" {
		return nil
	}
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	for k, v := range b.grouping {
		p = p.Grouping(k, v)
	}
	if err := p.Push(); err != nil {
		return eris.Wrap(err, "prompush: push")
	}
	return nil
}
