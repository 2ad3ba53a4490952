package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyetl/internal/enrich"
	"energyetl/internal/records"
)

func countriesFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "countries.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadList_CountryNames(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "comments and blank lines",
			body: "# G7 subset\nFrance\n\n  # indented comment\nUnited States\n",
			want: []string{"France", "United States"},
		},
		{
			name: "crlf and padding",
			body: "  Chad \r\nCote d'Ivoire\r\n",
			want: []string{"Chad", "Cote d'Ivoire"},
		},
		{
			name: "only comments",
			body: "# nothing yet\n",
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadList(countriesFile(t, tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadList_NarrowsRecordFilter(t *testing.T) {
	allow, err := ReadList(countriesFile(t, "France\nUnited States\n"))
	require.NoError(t, err)

	rec := func(country, iso string, year int) records.Record {
		return records.Record{Country: country, ISOCode: iso, Year: year, YearOK: true, Source: map[string]records.Cell{}}
	}
	in := records.Table{
		Columns: []string{records.ColCountry, records.ColISOCode, records.ColYear},
		Records: []records.Record{
			rec("France", "FRA", 2000),
			rec("Chad", "TCD", 2000),
			rec("United States", "USA", 2001),
			rec("France", "FRA", 1985),
		},
	}
	out := enrich.RecordFilter{Countries: allow}.Apply(in)

	var got []string
	for _, r := range out.Records {
		got = append(got, r.ISOCode)
	}
	assert.Equal(t, []string{"FRA", "USA"}, got, "allow-list narrows but never re-admits pre-1990 rows")
}

func TestReadList_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.txt")
	_, err := ReadList(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open list "+path)
}
