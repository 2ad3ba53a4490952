package enrich

import (
	"math"

	"energyetl/internal/records"
)

// safeDiv returns num/den, or 0 when den is not strictly positive or the
// quotient is not finite.
func safeDiv(num, den float64) float64 {
	if !(den > 0) {
		return 0
	}
	return finite(num / den)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ComputeMetrics derives the ratio, intensity and per-capita values of r.
// Every field depends only on raw measures.
func ComputeMetrics(r records.Record) records.Metrics {
	primary := r.Value(records.ColPrimaryEnergy)
	gdp := r.Value(records.ColGDP)
	pop := r.Value(records.ColPopulation)

	clean := r.Value(records.ColNuclear) + r.Value(records.ColRenewables)
	fossil := r.Value(records.ColCoal) + r.Value(records.ColOil) + r.Value(records.ColGas)

	return records.Metrics{
		CleanEnergyShare: finite(safeDiv(clean, primary) * 100),
		FossilFuelShare:  finite(safeDiv(fossil, primary) * 100),
		EnergyIntensity:  finite(safeDiv(primary, gdp) * 1e12),
		EnergyPerCapita:  safeDiv(primary*1e9, pop),
		CO2PerCapita:     safeDiv(r.Value(records.ColCO2)*1e6, pop),
		GDPPerCapita:     safeDiv(gdp, pop),
		SolarShare:       finite(safeDiv(r.Value(records.ColSolar), primary) * 100),
		WindShare:        finite(safeDiv(r.Value(records.ColWind), primary) * 100),
		HydroShare:       finite(safeDiv(r.Value(records.ColHydro), primary) * 100),
	}
}

// MetricsCalculator fills Record.Metrics.
type MetricsCalculator struct{}

func (MetricsCalculator) Name() string { return "derive_metrics" }

func (MetricsCalculator) Apply(t records.Table) records.Table {
	out := make([]records.Record, len(t.Records))
	for i, r := range t.Records {
		nr := r.Clone()
		nr.Metrics = ComputeMetrics(nr)
		out[i] = nr
	}
	return t.WithRecords(out)
}
