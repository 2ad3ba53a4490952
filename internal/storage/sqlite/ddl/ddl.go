// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite types are affinities: integers and booleans (0/1) are INTEGER,
// floats REAL, everything else TEXT.
package ddl

import (
	"context"
	"strings"

	gddl "energyetl/internal/ddl"
	"energyetl/internal/records"
	"energyetl/internal/storage"
)

var Dialect = gddl.Dialect{
	Name:    "sqlite",
	Quote:   func(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` },
	MapType: MapType,
}

func MapType(k records.Kind) string {
	switch k {
	case records.KindInt, records.KindBool:
		return "INTEGER"
	case records.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

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
