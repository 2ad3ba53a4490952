package enrich

import "energyetl/internal/records"

// Flag thresholds. All comparisons are strict.
const (
	MajorEconomyGDP        = 1e12
	HighEmitterCO2         = 100
	RenewableLeaderShare   = 50
	EnergyEfficientCeiling = 100
)

// ComputeFlags derives the boolean flags of r from raw and derived values.
func ComputeFlags(r records.Record) records.Flags {
	return records.Flags{
		MajorEconomy:    r.Value(records.ColGDP) > MajorEconomyGDP,
		HighEmitter:     r.Value(records.ColCO2) > HighEmitterCO2,
		RenewableLeader: r.Metrics.CleanEnergyShare > RenewableLeaderShare,
		EnergyEfficient: r.Metrics.EnergyIntensity < EnergyEfficientCeiling,
	}
}

// FlagClassifier fills Record.Flags.
type FlagClassifier struct{}

func (FlagClassifier) Name() string { return "classify_flags" }

func (FlagClassifier) Apply(t records.Table) records.Table {
	out := make([]records.Record, len(t.Records))
	for i, r := range t.Records {
		nr := r.Clone()
		nr.Flags = ComputeFlags(nr)
		out[i] = nr
	}
	return t.WithRecords(out)
}
