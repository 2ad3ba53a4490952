package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyetl/internal/config"
	csvparser "energyetl/internal/parser/csv"
)

type stringSource string

func (s stringSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}

const fullHeader = "country,iso_code,year,primary_energy_consumption,nuclear_consumption," +
	"renewables_consumption,coal_consumption,oil_consumption,gas_consumption," +
	"hydro_consumption,solar_consumption,wind_consumption,population,gdp,greenhouse_gas_emissions,note\n"

func TestProbe_Profile(t *testing.T) {
	src := stringSource(fullHeader +
		"World,OWID_WRL,2000,1000,1,1,1,1,1,1,1,1,6000,1,1,\n" +
		"Africa,,2000,50,1,1,1,1,1,1,1,1,800,1,1,\n" +
		"France,FRA,1995,100,10,20,30,30,10,5,2,3,10,500000,50,x\n" +
		"France,FRA,2001,-4,,,,,,,,,10,,60,\n" +
		"Chad,TCD,2010,1,0,0,0,1,0,0,0,0,5,0,-1,\n" +
		"bad,row\n")

	res, err := Probe(context.Background(), src, Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	assert.False(t, res.Truncated)
	assert.True(t, res.Ready(), "missing=%v", res.Missing)
	assert.Equal(t, 2, res.Countries)
	assert.Equal(t, 2, res.Aggregates)
	assert.Equal(t, 1995, res.MinYear)
	assert.Equal(t, 2010, res.MaxYear)

	byName := map[string]ColumnProfile{}
	for _, c := range res.Columns {
		byName[c.Name] = c
	}
	assert.Equal(t, ColumnProfile{Name: "primary_energy_consumption", Type: TypeNumber, NonEmpty: 5, Numeric: 5, Min: -4, Max: 1000}, byName["primary_energy_consumption"])
	assert.Equal(t, TypeText, byName["country"].Type)
	assert.Equal(t, TypeText, byName["note"].Type)
	assert.Equal(t, 4, byName["nuclear_consumption"].NonEmpty)
	assert.Contains(t, res.NumericColumns(), "gdp")
	assert.NotContains(t, res.NumericColumns(), "iso_code")
}

func TestProbe_NaNCountsAsEmpty(t *testing.T) {
	src := stringSource(fullHeader +
		"France,FRA,2000,NaN,1,1,1,1,1,1,1,1,10,1,inf,\n" +
		"Chad,TCD,2000,40,1,1,1,1,1,1,1,1,5,1,2,\n")

	res, err := Probe(context.Background(), src, Options{})
	require.NoError(t, err)

	byName := map[string]ColumnProfile{}
	for _, c := range res.Columns {
		byName[c.Name] = c
	}
	assert.Equal(t, ColumnProfile{Name: "primary_energy_consumption", Type: TypeNumber, NonEmpty: 1, Numeric: 1, Min: 40, Max: 40}, byName["primary_energy_consumption"])
	assert.Equal(t, 2.0, byName["greenhouse_gas_emissions"].Max)

	_, err = json.Marshal(res)
	assert.NoError(t, err)
}

func TestProbe_Truncates(t *testing.T) {
	var b strings.Builder
	b.WriteString(fullHeader)
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&b, "France,FRA,%d,1,1,1,1,1,1,1,1,1,1,1,1,\n", 1990+i%30)
	}
	res, err := Probe(context.Background(), stringSource(b.String()), Options{MaxRows: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Rows)
	assert.True(t, res.Truncated)
	assert.Equal(t, 1, res.Countries)
}

func TestProbe_MissingColumns(t *testing.T) {
	res, err := Probe(context.Background(), stringSource("Country;ISO Code;Year\n"), Options{Parser: csvparser.Options{Comma: ';'}})
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
	assert.False(t, res.Ready())
	assert.Equal(t, "primary_energy_consumption", res.Missing[0])
	assert.NotContains(t, res.Missing, "year")
	assert.NotContains(t, res.Missing, "co2", "co2 is synthesized when absent")
	require.Len(t, res.Columns, 3)
	assert.Equal(t, TypeEmpty, res.Columns[0].Type)
}

func TestProbe_EmptyInput(t *testing.T) {
	_, err := Probe(context.Background(), stringSource(""), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe: read sample")
}

func TestTableName(t *testing.T) {
	cases := map[string]string{
		"OWID Energy-Data": "owid_energy_data",
		"2024 stats":       "t_2024_stats",
		"  ":               "energy",
		"energy":           "energy",
	}
	for in, want := range cases {
		assert.Equal(t, want, TableName(in), in)
	}
}

func TestStarterPipeline(t *testing.T) {
	src := config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: "https://example.org/owid.csv"}}

	tests := []struct {
		backend string
		kind    string
		table   string
	}{
		{"postgresql", "postgres", "public.owid_energy"},
		{"sqlserver", "mssql", "dbo.owid_energy"},
		{"mariadb", "mysql", "owid_energy"},
		{"sqlite3", "sqlite", "owid_energy"},
	}
	for _, tc := range tests {
		p := StarterPipeline("OWID energy", tc.backend, src, csvparser.Options{})
		assert.Equal(t, tc.kind, p.Storage.Kind)
		assert.Equal(t, tc.table, p.Storage.DB.Table)
		assert.Equal(t, tc.table+"_summary", p.Storage.DB.SummaryTable)
		assert.True(t, p.Storage.DB.AutoCreateTable)
		assert.False(t, config.HasErrors(config.ValidatePipeline(p)), tc.backend)
	}

	p := StarterPipeline("OWID energy", "", src, csvparser.Options{Comma: ';', HeaderMap: map[string]string{"Land": "country"}})
	assert.Equal(t, "csv", p.Storage.Kind)
	assert.Equal(t, "owid_energy.csv", p.Storage.File.Path)
	assert.Equal(t, ';', p.Parser.Options.Rune("comma", ','))
	assert.Equal(t, "country", p.Parser.Options.StringMap("header_map")["Land"])
	assert.Empty(t, config.ValidatePipeline(p))

	p = StarterPipeline("x", "excel", src, csvparser.Options{})
	assert.Equal(t, "xlsx", p.Storage.Kind)
	assert.Equal(t, "x.xlsx", p.Storage.File.Path)
}
