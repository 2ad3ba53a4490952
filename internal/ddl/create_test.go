package ddl

import (
	"strings"
	"testing"

	"energyetl/internal/records"
)

func testDialect() Dialect {
	return Dialect{
		Name:  "test",
		Quote: func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
		MapType: func(k records.Kind) string {
			switch k {
			case records.KindInt:
				return "BIGINT"
			case records.KindFloat:
				return "DOUBLE"
			case records.KindBool:
				return "BOOLEAN"
			}
			return "TEXT"
		},
	}
}

func TestFromColumns(t *testing.T) {
	t.Parallel()

	d := testDialect()
	def := FromColumns("energy", []records.Column{
		{Name: "year", Kind: records.KindInt},
		{Name: "co2_sum", Kind: records.KindFloat},
	}, d.MapType, "year")

	if len(def.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(def.Columns))
	}
	year := def.Columns[0]
	if year.SQLType != "BIGINT" || year.Nullable || !year.PrimaryKey {
		t.Fatalf("year column = %+v", year)
	}
	co2 := def.Columns[1]
	if co2.SQLType != "DOUBLE" || !co2.Nullable || co2.PrimaryKey {
		t.Fatalf("co2_sum column = %+v", co2)
	}
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	d := testDialect()
	got, err := d.CreateTableSQL(TableDef{
		FQN: "public.energy",
		Columns: []ColumnDef{
			{Name: "year", SQLType: "BIGINT", PrimaryKey: true, Nullable: true},
			{Name: `we"ird`, SQLType: "TEXT", Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"public\".\"energy\" (\n" +
		"  \"year\" BIGINT NOT NULL,\n" +
		"  \"we\"\"ird\" TEXT,\n" +
		"  PRIMARY KEY (\"year\")\n);"
	if got != want {
		t.Fatalf("CreateTableSQL =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateTableSQL_Guard(t *testing.T) {
	t.Parallel()

	d := testDialect()
	d.Guard = func(fqn, create string) string { return "IF MISSING " + fqn + "\n" + create }
	got, err := d.CreateTableSQL(TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a", SQLType: "TEXT", Nullable: true}}})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if !strings.HasPrefix(got, "IF MISSING \"t\"\nCREATE TABLE \"t\" (") {
		t.Fatalf("guarded SQL = %q", got)
	}
}

func TestCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	d := testDialect()
	tests := []struct {
		name string
		def  TableDef
		want string
	}{
		{"empty fqn", TableDef{FQN: " ", Columns: []ColumnDef{{Name: "a", SQLType: "TEXT"}}}, "FQN must not be empty"},
		{"no columns", TableDef{FQN: "t"}, "at least one column"},
		{"empty name", TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "TEXT"}}}, "empty name"},
		{"missing type", TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a"}}}, "missing SQLType"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.CreateTableSQL(tc.def)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestDeleteAllSQL(t *testing.T) {
	t.Parallel()

	d := testDialect()
	got, err := d.DeleteAllSQL("public.energy")
	if err != nil {
		t.Fatalf("DeleteAllSQL: %v", err)
	}
	if want := `DELETE FROM "public"."energy";`; got != want {
		t.Fatalf("DeleteAllSQL = %q, want %q", got, want)
	}
	if _, err := d.DeleteAllSQL("  "); err == nil {
		t.Fatal("expected error for empty table name")
	}
}
