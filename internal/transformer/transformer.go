// Package transformer defines the stage contract of the enrichment pipeline
// and an ordered Chain that runs stages one after another.
package transformer

import (
	"time"

	"go.uber.org/zap"

	"energyetl/internal/metrics"
	"energyetl/internal/records"
)

// Transformer is one pipeline stage. Apply must not mutate its input; it
// returns a new table version.
type Transformer interface {
	Name() string
	Apply(records.Table) records.Table
}

// Func adapts a plain function into a named Transformer.
type Func struct {
	StageName string
	Fn        func(records.Table) records.Table
}

func (f Func) Name() string                        { return f.StageName }
func (f Func) Apply(t records.Table) records.Table { return f.Fn(t) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every stage in order, recording a step metric and a debug log
// line per stage under job.
func (c Chain) Apply(job string, in records.Table) records.Table {
	out := in
	for _, t := range c {
		start := time.Now()
		before := out.Len()
		out = t.Apply(out)
		d := time.Since(start)

		metrics.RecordStep(job, t.Name(), nil, d)
		if dropped := before - out.Len(); dropped > 0 {
			metrics.RecordRow(job, t.Name()+"_dropped", int64(dropped))
		}
		zap.L().Debug("transform: stage done",
			zap.String("stage", t.Name()),
			zap.Int("in", before),
			zap.Int("out", out.Len()),
			zap.Duration("took", d),
		)
	}
	return out
}

// Names returns the stage names in order.
func (c Chain) Names() []string {
	out := make([]string, len(c))
	for i, t := range c {
		out[i] = t.Name()
	}
	return out
}
