// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE statements from it.
//
// Dialect packages (internal/storage/<kind>/ddl) supply identifier quoting,
// the logical-to-SQL type mapping and, where the dialect lacks
// CREATE TABLE IF NOT EXISTS, a guard around the statement.
package ddl

import (
	"strings"

	"github.com/rotisserie/eris"

	"energyetl/internal/records"
)

// ColumnDef describes a single column.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name, in dotted form ("schema.table"), and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect renders a TableDef for one SQL backend.
type Dialect struct {
	Name    string
	Quote   func(ident string) string
	MapType func(records.Kind) string
	// Guard wraps the bare CREATE TABLE statement. Nil means the dialect
	// accepts CREATE TABLE IF NOT EXISTS.
	Guard func(quotedFQN, create string) string
}

// FromColumns builds a table definition for an output layout. Columns named
// in key become a NOT NULL primary key; everything else is nullable.
func FromColumns(fqn string, cols []records.Column, mapType func(records.Kind) string, key ...string) TableDef {
	isKey := make(map[string]bool, len(key))
	for _, k := range key {
		isKey[k] = true
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(cols))}
	for _, c := range cols {
		def.Columns = append(def.Columns, ColumnDef{
			Name:       c.Name,
			SQLType:    mapType(c.Kind),
			Nullable:   !isKey[c.Name],
			PrimaryKey: isKey[c.Name],
		})
	}
	return def
}

// QuoteFQN quotes each dotted segment of fqn. Empty segments are dropped.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, d.Quote(p))
		}
	}
	return strings.Join(out, ".")
}

// CreateTableSQL renders t as:
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...,
//	  PRIMARY KEY (<pk cols>)
//	);
//
// Primary key columns are always NOT NULL.
func (d Dialect) CreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", eris.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", eris.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", eris.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", eris.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, "PRIMARY KEY ("+strings.Join(pks, ", ")+")")
	}

	quoted := d.QuoteFQN(fqn)
	body := " " + quoted + " (\n  " + strings.Join(cols, ",\n  ") + "\n);"
	if d.Guard == nil {
		return "CREATE TABLE IF NOT EXISTS" + body, nil
	}
	return d.Guard(quoted, "CREATE TABLE"+body), nil
}

// DeleteAllSQL renders a statement that removes every row of fqn while
// keeping the table and its grants.
func (d Dialect) DeleteAllSQL(fqn string) (string, error) {
	if strings.TrimSpace(fqn) == "" {
		return "", eris.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	return "DELETE FROM " + d.QuoteFQN(fqn) + ";", nil
}
