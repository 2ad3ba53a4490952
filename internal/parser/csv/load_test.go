package csv

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"energyetl/internal/config"
	"energyetl/internal/datasource/file"
	"energyetl/internal/records"
)

func TestRead_BuildsRecords(t *testing.T) {
	t.Parallel()

	const in = "\uFEFFCountry,ISO Code,Year,GDP,Note\n" +
		"France, FRA ,2000,1.5e12,ok\n" +
		"Chad,TCD,2001.0,,\n" +
		"broken,row\n" +
		"World,OWID_WRL,19x9,3,n/a\n"

	tbl, st, err := Read(context.Background(), strings.NewReader(in), Options{}, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	wantCols := []string{"country", "iso_code", "year", "gdp", "note"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("columns = %v, want %v", tbl.Columns, wantCols)
	}
	if st.Rows != 3 || st.Skipped != 1 {
		t.Fatalf("stats = %+v, want 3 rows, 1 skipped", st)
	}

	fra := tbl.Records[0]
	if fra.Country != "France" || fra.ISOCode != "FRA" || fra.Year != 2000 || !fra.YearOK {
		t.Fatalf("identity = %q/%q/%d/%v", fra.Country, fra.ISOCode, fra.Year, fra.YearOK)
	}
	if got := fra.Value(records.ColGDP); got != 1.5e12 {
		t.Fatalf("gdp = %v", got)
	}
	if c := fra.Source["note"]; c.Valid || c.Raw != "ok" {
		t.Fatalf("note cell = %+v, want raw text", c)
	}

	chad := tbl.Records[1]
	if chad.Year != 2001 || !chad.YearOK {
		t.Fatalf("integral float year = %d/%v", chad.Year, chad.YearOK)
	}
	if chad.Has(records.ColGDP) {
		t.Fatal("empty gdp should be missing")
	}
	if _, ok := chad.Source[records.ColYear]; ok {
		t.Fatal("identity columns must not be in Source")
	}

	if tbl.Records[2].YearOK {
		t.Fatal("unparseable year should set YearOK=false")
	}
}

func TestRead_HeaderMapAndComma(t *testing.T) {
	t.Parallel()

	const in = "Land;Jahr\nFrance;2000\n"
	opt := OptionsFrom(config.Parser{Kind: "csv", Options: config.Options{
		"comma":      ";",
		"header_map": map[string]any{"Land": "country", "Jahr": "year"},
	}})
	tbl, _, err := Read(context.Background(), strings.NewReader(in), opt, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"country", "year"}) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	if tbl.Records[0].Country != "France" || tbl.Records[0].Year != 2000 {
		t.Fatalf("record = %+v", tbl.Records[0])
	}
}

func TestRead_HeaderOnlyAndEmpty(t *testing.T) {
	t.Parallel()

	tbl, st, err := Read(context.Background(), strings.NewReader("country,year\n"), Options{}, 1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(tbl.Columns) != 2 || tbl.Len() != 0 || st.Rows != 0 {
		t.Fatalf("header-only table = %+v", tbl)
	}

	if _, _, err := Read(context.Background(), strings.NewReader(""), Options{}, 1); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestRead_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Read(ctx, strings.NewReader("a\n1\n2\n"), Options{}, 1); err == nil {
		t.Fatal("expected context error")
	}
}

func TestLoad_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "owid.csv")
	if err := os.WriteFile(path, []byte("country,iso_code,year\nFrance,FRA,1999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, _, err := Load(context.Background(), file.NewLocal(path), Options{}, 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 1 || tbl.Records[0].Year != 1999 {
		t.Fatalf("table = %+v", tbl)
	}
}

func TestNormalizeHeaders(t *testing.T) {
	t.Parallel()

	got := normalizeHeaders(
		[]string{"\uFEFF Country ", "Énergie primaire", "co2 (Mt)", "iso_code", "Keep"},
		map[string]string{"Keep": "kept_as_is"},
	)
	want := []string{"country", "energie_primaire", "co2_mt", "iso_code", "kept_as_is"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizeHeaders = %v, want %v", got, want)
	}
}
