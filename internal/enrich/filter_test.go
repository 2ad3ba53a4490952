package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyetl/internal/records"
)

func TestRecordFilter_Rules(t *testing.T) {
	tests := []struct {
		name string
		r    records.Record
		keep bool
	}{
		{"country row", rec("France", "FRA", 2000, nil), true},
		{"boundary year", rec("France", "FRA", 1990, nil), true},
		{"before 1990", rec("France", "FRA", 1989, nil), false},
		{"aggregate code", rec("World", "OWID_WRL", 2000, nil), false},
		{"aggregate prefix only", rec("Africa", "OWID_AFR", 2010, nil), false},
		{"world name with code", rec("World", "WLD", 2000, nil), false},
		{"empty code", rec("Asia", "", 2000, nil), false},
		{"blank code", rec("Asia", "  ", 2000, nil), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := RecordFilter{}.Apply(table(tc.r))
			assert.Equal(t, tc.keep, out.Len() == 1)
		})
	}
}

func TestRecordFilter_UnparseableYear(t *testing.T) {
	r := rec("France", "FRA", 0, nil)
	r.YearOK = false
	assert.Equal(t, 0, RecordFilter{}.Apply(table(r)).Len())
}

func TestRecordFilter_FixedPoint(t *testing.T) {
	in := table(
		rec("France", "FRA", 2000, nil),
		rec("World", "OWID_WRL", 2000, nil),
		rec("Chad", "TCD", 1985, nil),
		rec("Chad", "TCD", 1995, nil),
	)
	once := RecordFilter{}.Apply(in)
	twice := RecordFilter{}.Apply(once)
	require.Equal(t, 2, once.Len())
	assert.Equal(t, once, twice)
	assert.Equal(t, 4, in.Len(), "input must be untouched")
}

func TestRecordFilter_OptionalNarrowing(t *testing.T) {
	in := table(
		rec("France", "FRA", 2021, nil),
		rec("France", "FRA", 2023, nil),
		rec("Chad", "TCD", 2021, nil),
	)
	out := RecordFilter{MaxYear: 2022, Countries: []string{"France"}}.Apply(in)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, records.Key{ISOCode: "FRA", Year: 2021}, out.Records[0].Key())
}

func TestIdentityDeduper_KeepsFirst(t *testing.T) {
	var dropped []records.Key
	d := IdentityDeduper{OnDuplicate: func(k records.Key) { dropped = append(dropped, k) }}
	in := table(
		rec("France", "FRA", 2000, map[string]float64{records.ColGDP: 1}),
		rec("France", "FRA", 2000, map[string]float64{records.ColGDP: 2}),
		rec("France", "FRA", 2001, nil),
	)
	out := d.Apply(in)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, 1.0, out.Records[0].Value(records.ColGDP))
	assert.Equal(t, []records.Key{{ISOCode: "FRA", Year: 2000}}, dropped)
}

func TestColumnFiller(t *testing.T) {
	r := rec("France", "FRA", 2000, map[string]float64{records.ColPopulation: 5})
	r.Source["notes"] = records.Cell{}
	in := table(r)
	in.Columns = append(in.Columns, "notes")

	out := ColumnFiller{}.Apply(in)
	got := out.Records[0]
	assert.True(t, got.Has(records.ColGDP))
	assert.Equal(t, 0.0, got.Value(records.ColGDP))
	assert.Equal(t, 5.0, got.Value(records.ColPopulation))
	assert.False(t, got.Has("notes"), "unlisted columns stay missing")
	assert.False(t, got.Has(records.ColOtherRenewable), "columns absent from the header are not created")
	assert.False(t, in.Records[0].Has(records.ColGDP), "input must be untouched")

	assert.Equal(t, out, ColumnFiller{}.Apply(out), "filling is idempotent")
}

func TestColumnNormalizer(t *testing.T) {
	t.Run("renames greenhouse gas", func(t *testing.T) {
		in := records.Table{
			Columns: []string{records.ColCountry, records.ColGreenhouseGas},
			Records: []records.Record{rec("France", "FRA", 2000, map[string]float64{records.ColGreenhouseGas: 7})},
		}
		out := ColumnNormalizer{}.Apply(in)
		assert.Equal(t, []string{records.ColCountry, records.ColCO2}, out.Columns)
		assert.Equal(t, 7.0, out.Records[0].Value(records.ColCO2))
		_, ok := out.Records[0].Source[records.ColGreenhouseGas]
		assert.False(t, ok)
	})
	t.Run("synthesizes zero", func(t *testing.T) {
		in := records.Table{
			Columns: []string{records.ColCountry},
			Records: []records.Record{rec("France", "FRA", 2000, nil)},
		}
		out := ColumnNormalizer{}.Apply(in)
		assert.Equal(t, []string{records.ColCountry, records.ColCO2}, out.Columns)
		assert.True(t, out.Records[0].Has(records.ColCO2))
		assert.Equal(t, 0.0, out.Records[0].Value(records.ColCO2))
	})
}

func TestCheckSchema(t *testing.T) {
	require.NoError(t, CheckSchema(fullHeader))

	cols := []string{}
	for _, c := range fullHeader {
		if c != records.ColGDP {
			cols = append(cols, c)
		}
	}
	err := CheckSchema(cols)
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Contains(t, err.Error(), records.ColGDP)
}
