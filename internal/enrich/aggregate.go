package enrich

import (
	"math"
	"sort"

	"energyetl/internal/records"
)

// Summary column names, in export order.
var SummaryColumns = []records.Column{
	{Name: records.ColYear, Kind: records.KindInt},
	{Name: "primary_energy_consumption_sum", Kind: records.KindFloat},
	{Name: "primary_energy_consumption_mean", Kind: records.KindFloat},
	{Name: "co2_sum", Kind: records.KindFloat},
	{Name: "co2_mean", Kind: records.KindFloat},
	{Name: "clean_energy_share_mean", Kind: records.KindFloat},
	{Name: "energy_per_capita_mean", Kind: records.KindFloat},
}

// YearSummary is one row of the yearly summary table.
type YearSummary struct {
	Year                int     `json:"year"`
	EnergySum           float64 `json:"primary_energy_consumption_sum"`
	EnergyMean          float64 `json:"primary_energy_consumption_mean"`
	CO2Sum              float64 `json:"co2_sum"`
	CO2Mean             float64 `json:"co2_mean"`
	CleanShareMean      float64 `json:"clean_energy_share_mean"`
	EnergyPerCapitaMean float64 `json:"energy_per_capita_mean"`
}

// Values renders s aligned with SummaryColumns.
func (s YearSummary) Values() []any {
	return []any{
		int64(s.Year),
		s.EnergySum, s.EnergyMean,
		s.CO2Sum, s.CO2Mean,
		s.CleanShareMean,
		s.EnergyPerCapitaMean,
	}
}

// Aggregate groups t by year. One row per year present, ascending, every
// value rounded to two decimals.
func Aggregate(t records.Table) []YearSummary {
	type acc struct {
		n      int
		energy float64
		co2    float64
		clean  float64
		perCap float64
	}
	byYear := make(map[int]*acc)
	for _, r := range t.Records {
		a, ok := byYear[r.Year]
		if !ok {
			a = &acc{}
			byYear[r.Year] = a
		}
		a.n++
		a.energy += r.Value(records.ColPrimaryEnergy)
		a.co2 += r.Value(records.ColCO2)
		a.clean += r.Metrics.CleanEnergyShare
		a.perCap += r.Metrics.EnergyPerCapita
	}

	out := make([]YearSummary, 0, len(byYear))
	for year, a := range byYear {
		n := float64(a.n)
		out = append(out, YearSummary{
			Year:                year,
			EnergySum:           round2(a.energy),
			EnergyMean:          round2(a.energy / n),
			CO2Sum:              round2(a.co2),
			CO2Mean:             round2(a.co2 / n),
			CleanShareMean:      round2(a.clean / n),
			EnergyPerCapitaMean: round2(a.perCap / n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// round2 rounds half to even at two decimals.
func round2(v float64) float64 {
	return finite(math.RoundToEven(v*100) / 100)
}
