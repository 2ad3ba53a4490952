// Package metrics is a backend-agnostic facade for the operational metrics
// of an enrichment run: per-stage executions and durations, record counts,
// export batches and quality warnings.
//
// The global backend defaults to a no-op, so every Record* call is safe when
// no backend is configured. Concrete systems live in subpackages (prompush,
// datadog) and are installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names.
const (
	StepTotal       = "energyetl_step_total"
	StepDuration    = "energyetl_step_duration_seconds"
	RecordsTotal    = "energyetl_records_total"
	BatchesTotal    = "energyetl_batches_total"
	QualityWarnings = "energyetl_quality_warnings_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a latency style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics when the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Reset restores the nop backend.
func Reset() {
	mu.Lock()
	backend = nopBackend{}
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one stage execution and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds delta to the record counter of kind. Kinds used by the
// pipeline: "loaded", "skipped", "<stage>_dropped", "exported".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches adds delta to the export batch counter.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

// RecordQuality adds delta quality warnings of kind ("negative_column",
// "duplicate").
func RecordQuality(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(QualityWarnings, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
