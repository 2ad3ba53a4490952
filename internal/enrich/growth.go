package enrich

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"energyetl/internal/records"
)

// GrowthRateCalculator computes year-over-year percentage changes of primary
// energy, GDP, co2 and population within each ISO code partition. The first
// year of a partition and any non-finite change get 0. Gaps in the year
// sequence are not bridged: the change is taken against the immediately
// preceding available year.
//
// Output is sorted by (country, year).
type GrowthRateCalculator struct {
	// Workers bounds the partitions processed concurrently. Zero means
	// GOMAXPROCS.
	Workers int
}

func (GrowthRateCalculator) Name() string { return "growth_rates" }

func (g GrowthRateCalculator) Apply(t records.Table) records.Table {
	parts, order := partitionByISO(t.Records)

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var eg errgroup.Group
	eg.SetLimit(workers)
	for _, iso := range order {
		series := parts[iso]
		eg.Go(func() error {
			growSeries(series)
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]records.Record, 0, len(t.Records))
	for _, iso := range order {
		out = append(out, parts[iso]...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].Year < out[j].Year
	})
	return t.WithRecords(out)
}

// partitionByISO clones every record into its ISO code series. order lists
// codes by first appearance so the merge is deterministic.
func partitionByISO(in []records.Record) (map[string][]records.Record, []string) {
	parts := make(map[string][]records.Record)
	var order []string
	for _, r := range in {
		if _, ok := parts[r.ISOCode]; !ok {
			order = append(order, r.ISOCode)
		}
		parts[r.ISOCode] = append(parts[r.ISOCode], r.Clone())
	}
	return parts, order
}

func growSeries(series []records.Record) {
	sort.SliceStable(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	for i := range series {
		if i == 0 {
			series[i].Growth = records.Growth{}
			continue
		}
		prev, cur := series[i-1], series[i]
		series[i].Growth = records.Growth{
			Energy:     pctChange(prev.Value(records.ColPrimaryEnergy), cur.Value(records.ColPrimaryEnergy)),
			GDP:        pctChange(prev.Value(records.ColGDP), cur.Value(records.ColGDP)),
			CO2:        pctChange(prev.Value(records.ColCO2), cur.Value(records.ColCO2)),
			Population: pctChange(prev.Value(records.ColPopulation), cur.Value(records.ColPopulation)),
		}
	}
}

// pctChange returns (cur-prev)/prev*100, or 0 when the result is not finite.
func pctChange(prev, cur float64) float64 {
	return finite((cur - prev) / prev * 100)
}
