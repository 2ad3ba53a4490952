package enrich

import "energyetl/internal/records"

// FillColumns are the measures whose missing values become zero.
var FillColumns = []string{
	records.ColPrimaryEnergy,
	records.ColNuclear,
	records.ColRenewables,
	records.ColCoal,
	records.ColOil,
	records.ColGas,
	records.ColHydro,
	records.ColSolar,
	records.ColWind,
	records.ColOtherRenewable,
	records.ColCO2,
	records.ColPopulation,
	records.ColGDP,
}

// ColumnFiller replaces missing values in Columns with zero. Columns absent
// from the table header are skipped; columns not listed are left untouched.
type ColumnFiller struct {
	Columns []string
}

func (ColumnFiller) Name() string { return "fill_missing" }

func (f ColumnFiller) Apply(t records.Table) records.Table {
	cols := f.Columns
	if cols == nil {
		cols = FillColumns
	}
	present := make([]string, 0, len(cols))
	for _, c := range cols {
		if t.HasColumn(c) {
			present = append(present, c)
		}
	}

	out := make([]records.Record, len(t.Records))
	for i, r := range t.Records {
		nr := r.Clone()
		for _, c := range present {
			if !nr.Has(c) {
				nr.Source[c] = records.NumCell(0)
			}
		}
		out[i] = nr
	}
	return t.WithRecords(out)
}
