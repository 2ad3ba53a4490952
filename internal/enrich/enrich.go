package enrich

import (
	"sync/atomic"

	"energyetl/internal/records"
	"energyetl/internal/transformer"
)

// Options tune the enrichment run. The zero value gives the default
// behavior: no year ceiling, no country allow-list, GOMAXPROCS workers.
type Options struct {
	MaxYear   int
	Countries []string
	Workers   int
	// OnDuplicate, when set, is called for every dropped duplicate identity.
	OnDuplicate func(records.Key)
}

// Result is the output of Enrich.
type Result struct {
	Table   records.Table
	Summary []YearSummary
	Quality QualityReport
}

// Stages returns the record stages that run after schema normalization, in
// order. dups receives one increment per dropped duplicate.
func Stages(o Options, dups *atomic.Int64) transformer.Chain {
	return transformer.Chain{
		RecordFilter{MaxYear: o.MaxYear, Countries: o.Countries},
		IdentityDeduper{OnDuplicate: func(k records.Key) {
			dups.Add(1)
			if o.OnDuplicate != nil {
				o.OnDuplicate(k)
			}
		}},
		ColumnFiller{},
		GeoClassifier{},
		MetricsCalculator{},
		IncomeClassifier{},
		GrowthRateCalculator{Workers: o.Workers},
		FlagClassifier{},
	}
}

// Enrich normalizes the emissions column, verifies the schema and runs every
// stage under job. The only error is a *SchemaError; quality findings are
// returned in Result.Quality.
func Enrich(job string, raw records.Table, o Options) (Result, error) {
	norm := transformer.Chain{ColumnNormalizer{}}.Apply(job, raw)
	if err := CheckSchema(norm.Columns); err != nil {
		return Result{}, err
	}

	var dups atomic.Int64
	out := Stages(o, &dups).Apply(job, norm)

	q := Check(out)
	q.Duplicates = int(dups.Load())
	return Result{
		Table:   out,
		Summary: Aggregate(out),
		Quality: q,
	}, nil
}
