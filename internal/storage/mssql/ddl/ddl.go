// Package ddl contains SQL Server helpers for generating DDL.
//
// T-SQL has no CREATE TABLE IF NOT EXISTS, so statements are wrapped in an
// IF OBJECT_ID(...) IS NULL guard.
package ddl

import (
	"context"
	"strings"

	gddl "energyetl/internal/ddl"
	"energyetl/internal/records"
	"energyetl/internal/storage"
)

var Dialect = gddl.Dialect{
	Name:    "mssql",
	Quote:   QuoteIdent,
	MapType: MapType,
	Guard: func(fqn, create string) string {
		return "IF OBJECT_ID(N'" + strings.ReplaceAll(fqn, "'", "''") + "', N'U') IS NULL\nBEGIN\n" + create + "\nEND"
	},
}

// MapType maps an output column kind to a SQL Server type. Text columns are
// NVARCHAR(MAX) since country names are Unicode.
func MapType(k records.Kind) string {
	switch k {
	case records.KindInt:
		return "BIGINT"
	case records.KindFloat:
		return "FLOAT"
	case records.KindBool:
		return "BIT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// QuoteIdent quotes with [brackets], escaping ].
func QuoteIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

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
