package enrich

import (
	"sort"

	"energyetl/internal/records"
)

// YearCompleteness counts the records of one year and how many of them carry
// strictly positive primary energy and GDP values.
type YearCompleteness struct {
	Year       int `json:"year"`
	Total      int `json:"total_countries"`
	WithEnergy int `json:"with_energy_data"`
	WithGDP    int `json:"with_gdp_data"`
}

// QualityReport is the outcome of Check. It is diagnostic only.
type QualityReport struct {
	// NegativeColumns lists numeric columns holding at least one negative
	// value, in output column order.
	NegativeColumns []string           `json:"negative_columns"`
	Completeness    []YearCompleteness `json:"completeness"`
	// Duplicates is the number of records the identity deduper dropped.
	Duplicates int `json:"duplicates"`
}

// Clean reports whether the report carries no warnings.
func (q QualityReport) Clean() bool {
	return len(q.NegativeColumns) == 0 && q.Duplicates == 0
}

// Check scans the enriched table. It never mutates t and never fails.
func Check(t records.Table) QualityReport {
	return QualityReport{
		NegativeColumns: NegativeColumns(t),
		Completeness:    Completeness(t),
	}
}

// NegativeColumns returns the numeric output columns of t that hold a value
// below zero. Text and boolean columns are skipped.
func NegativeColumns(t records.Table) []string {
	cols := records.OutputColumns(t, records.TextColumns(t))
	var out []string
	for _, c := range cols {
		if c.Kind != records.KindInt && c.Kind != records.KindFloat {
			continue
		}
		for _, r := range t.Records {
			v, valid, ok := r.NumericValue(c.Name)
			if ok && valid && v < 0 {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

// Completeness returns per-year counts ordered by year ascending.
func Completeness(t records.Table) []YearCompleteness {
	byYear := make(map[int]*YearCompleteness)
	for _, r := range t.Records {
		yc, ok := byYear[r.Year]
		if !ok {
			yc = &YearCompleteness{Year: r.Year}
			byYear[r.Year] = yc
		}
		yc.Total++
		if r.Value(records.ColPrimaryEnergy) > 0 {
			yc.WithEnergy++
		}
		if r.Value(records.ColGDP) > 0 {
			yc.WithGDP++
		}
	}
	out := make([]YearCompleteness, 0, len(byYear))
	for _, yc := range byYear {
		out = append(out, *yc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
