// Package enrich implements the enrichment stages that turn raw country-year
// energy rows into the analysis-ready dataset: schema normalization,
// filtering, zero filling, classification, derived metrics, growth rates,
// flags, quality checks and the yearly summary.
//
// Every stage is a transformer.Transformer. Stages clone the records they
// change and never write into their input table.
package enrich

import (
	"errors"
	"fmt"

	"energyetl/internal/records"
)

// RequiredColumns must be present in the source header once emissions have
// been normalized. A missing one is a SchemaError.
var RequiredColumns = []string{
	records.ColCountry,
	records.ColISOCode,
	records.ColYear,
	records.ColPrimaryEnergy,
	records.ColNuclear,
	records.ColRenewables,
	records.ColCoal,
	records.ColOil,
	records.ColGas,
	records.ColHydro,
	records.ColSolar,
	records.ColWind,
	records.ColPopulation,
	records.ColGDP,
}

// SchemaError reports a required source column that is absent and cannot be
// synthesized.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: required column %q is missing from the source", e.Column)
}

// IsSchemaError reports whether err wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// CheckSchema returns a *SchemaError for the first required column missing
// from cols.
func CheckSchema(cols []string) error {
	have := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		have[c] = struct{}{}
	}
	for _, c := range RequiredColumns {
		if _, ok := have[c]; !ok {
			return &SchemaError{Column: c}
		}
	}
	return nil
}

// ColumnNormalizer guarantees an emissions column. When co2 is absent it
// renames greenhouse_gas_emissions to co2, or synthesizes an all-zero co2
// column when neither exists.
type ColumnNormalizer struct{}

func (ColumnNormalizer) Name() string { return "normalize_columns" }

func (ColumnNormalizer) Apply(t records.Table) records.Table {
	if t.HasColumn(records.ColCO2) {
		return t.WithRecords(cloneAll(t.Records))
	}

	rename := t.HasColumn(records.ColGreenhouseGas)
	out := t.WithRecords(make([]records.Record, len(t.Records)))
	if rename {
		for i, c := range out.Columns {
			if c == records.ColGreenhouseGas {
				out.Columns[i] = records.ColCO2
			}
		}
	} else {
		out.Columns = append(out.Columns, records.ColCO2)
	}

	for i, r := range t.Records {
		nr := r.Clone()
		if rename {
			nr.Source[records.ColCO2] = nr.Source[records.ColGreenhouseGas]
			delete(nr.Source, records.ColGreenhouseGas)
		} else {
			nr.Source[records.ColCO2] = records.NumCell(0)
		}
		out.Records[i] = nr
	}
	return out
}

func cloneAll(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
