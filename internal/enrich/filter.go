package enrich

import (
	"strings"

	"energyetl/internal/records"
)

const (
	// MinYear is the first year kept by RecordFilter.
	MinYear = 1990
	// AggregatePrefix marks synthetic multi-country entities (continents,
	// income groups) in the iso_code column.
	AggregatePrefix = "OWID_"
	// WorldCountry is the display name of the world-total row.
	WorldCountry = "World"
)

// RecordFilter drops rows without a usable country code, aggregate and world
// rows, and rows before MinYear.
//
// MaxYear and Countries are optional narrowing filters; zero values disable
// them.
type RecordFilter struct {
	MaxYear   int
	Countries []string
}

func (RecordFilter) Name() string { return "filter_records" }

// Apply returns the kept records. Applying it to its own output is a no-op.
func (f RecordFilter) Apply(t records.Table) records.Table {
	var allow map[string]struct{}
	if len(f.Countries) > 0 {
		allow = make(map[string]struct{}, len(f.Countries))
		for _, c := range f.Countries {
			allow[c] = struct{}{}
		}
	}

	out := make([]records.Record, 0, len(t.Records))
	for _, r := range t.Records {
		if !f.keep(r, allow) {
			continue
		}
		out = append(out, r.Clone())
	}
	return t.WithRecords(out)
}

func (f RecordFilter) keep(r records.Record, allow map[string]struct{}) bool {
	code := strings.TrimSpace(r.ISOCode)
	if code == "" || strings.HasPrefix(code, AggregatePrefix) {
		return false
	}
	if r.Country == WorldCountry {
		return false
	}
	if !r.YearOK || r.Year < MinYear {
		return false
	}
	if f.MaxYear > 0 && r.Year > f.MaxYear {
		return false
	}
	if allow != nil {
		if _, ok := allow[r.Country]; !ok {
			return false
		}
	}
	return true
}
