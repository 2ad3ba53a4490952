package enrich

import (
	"sync/atomic"

	"energyetl/internal/records"
	"energyetl/internal/transformer"
)

// fullHeader is a source header carrying every required column and co2.
var fullHeader = append(append([]string{}, RequiredColumns...), records.ColCO2)

func rec(country, iso string, year int, vals map[string]float64) records.Record {
	r := records.Record{
		Country: country,
		ISOCode: iso,
		Year:    year,
		YearOK:  true,
		Source:  map[string]records.Cell{},
	}
	for k, v := range vals {
		r.Source[k] = records.NumCell(v)
	}
	return r
}

func table(recs ...records.Record) records.Table {
	return records.Table{Columns: append([]string{}, fullHeader...), Records: recs}
}

func transformerChain() transformer.Chain {
	return Stages(Options{}, new(atomic.Int64))
}
