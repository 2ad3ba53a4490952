// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"context"
	"strings"

	gddl "energyetl/internal/ddl"
	"energyetl/internal/records"
	"energyetl/internal/storage"
)

// Dialect renders Postgres DDL: double-quoted identifiers and
// CREATE TABLE IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:    "postgres",
	Quote:   QuoteIdent,
	MapType: MapType,
}

// MapType maps an output column kind to a Postgres type.
func MapType(k records.Kind) string {
	switch k {
	case records.KindInt:
		return "BIGINT"
	case records.KindFloat:
		return "DOUBLE PRECISION"
	case records.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// QuoteIdent quotes one identifier segment, escaping embedded quotes.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// EnsureTable creates spec's table if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, spec storage.TableSpec) error {
	sql, err := Dialect.CreateTableSQL(gddl.FromColumns(spec.Table, spec.Columns, MapType, spec.Key...))
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

// ClearTable deletes every row of table.
func ClearTable(ctx context.Context, repo storage.Repository, table string) error {
	sql, err := Dialect.DeleteAllSQL(table)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
