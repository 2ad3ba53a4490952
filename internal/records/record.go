// Package records defines the in-memory table model that flows through the
// enrichment pipeline: a Table is an ordered header plus one Record per
// (country, year) observation.
//
// Stages never write into a Record they received. They Clone it first and
// return the copy, so every stage output is a new version of the table.
package records

import (
	"math"
	"strconv"
	"strings"
)

// Identity columns. They are lifted out of the source cells into typed fields.
const (
	ColCountry = "country"
	ColISOCode = "iso_code"
	ColYear    = "year"
)

// Cell is a single source value. Valid is false when the raw text was empty
// or could not be parsed as a number. NaN and infinity markers read as empty.
type Cell struct {
	Raw   string
	Num   float64
	Valid bool
}

// ParseCell converts raw CSV text into a Cell.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Cell{Raw: s}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Cell{}
	}
	return Cell{Raw: s, Num: f, Valid: true}
}

// NumCell returns a valid Cell holding f.
func NumCell(f float64) Cell {
	return Cell{Raw: FormatFloat(f), Num: f, Valid: true}
}

// Metrics holds the ratio, intensity and per-capita values derived from the
// raw measures.
type Metrics struct {
	CleanEnergyShare float64
	FossilFuelShare  float64
	EnergyIntensity  float64
	EnergyPerCapita  float64
	CO2PerCapita     float64
	GDPPerCapita     float64
	SolarShare       float64
	WindShare        float64
	HydroShare       float64
}

// Growth holds year-over-year percentage changes.
type Growth struct {
	Energy     float64
	GDP        float64
	CO2        float64
	Population float64
}

// Flags holds the threshold-derived booleans.
type Flags struct {
	MajorEconomy    bool
	HighEmitter     bool
	RenewableLeader bool
	EnergyEfficient bool
}

// Record is one country-year observation.
type Record struct {
	Country string
	ISOCode string
	Year    int
	// YearOK is false when the source year cell was empty or not an integer.
	YearOK bool

	// Source holds every non-identity source column keyed by column name.
	Source map[string]Cell

	Continent   string
	Region      string
	IncomeLevel string

	Metrics Metrics
	Growth  Growth
	Flags   Flags
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Source = make(map[string]Cell, len(r.Source))
	for k, v := range r.Source {
		out.Source[k] = v
	}
	return out
}

// Value returns the numeric value of a source column, or 0 when the column is
// absent or missing.
func (r Record) Value(col string) float64 {
	c, ok := r.Source[col]
	if !ok || !c.Valid {
		return 0
	}
	return c.Num
}

// Has reports whether the record carries a valid value for col.
func (r Record) Has(col string) bool {
	c, ok := r.Source[col]
	return ok && c.Valid
}

// Key is the record identity.
type Key struct {
	ISOCode string
	Year    int
}

// Key returns the (iso_code, year) identity of r.
func (r Record) Key() Key { return Key{ISOCode: r.ISOCode, Year: r.Year} }

// Table is an ordered header plus its records.
type Table struct {
	// Columns lists the source columns in header order, identity columns
	// included.
	Columns []string
	Records []Record
}

// HasColumn reports whether the table header contains col.
func (t Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// WithRecords returns a table with a copy of t's header and recs.
func (t Table) WithRecords(recs []Record) Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return Table{Columns: cols, Records: recs}
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.Records) }

// FormatFloat renders f in the shortest form that round-trips.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatBool renders b as True or False.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
