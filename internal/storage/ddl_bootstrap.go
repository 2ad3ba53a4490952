package storage

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"energyetl/internal/records"
)

// TableSpec describes a table to create: its name, its output layout and the
// columns forming its primary key (may be empty).
type TableSpec struct {
	Table   string
	Columns []records.Column
	Key     []string
}

// DDLBootstrapper renders backend-specific DDL for spec and applies it via
// repo.Exec. SQL backends register one per kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, spec TableSpec) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the bootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// HasDDL reports whether kind creates its own tables through DDL.
func HasDDL(kind string) bool {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	_, ok := ddlFns[kind]
	return ok
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, spec TableSpec) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return eris.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, spec)
}

// TableClearer removes every row of table via repo.Exec. SQL backends register
// one; file sinks replace their output when opened.
type TableClearer func(ctx context.Context, repo Repository, table string) error

var (
	clearMu  sync.RWMutex
	clearFns = map[string]TableClearer{}
)

// RegisterClear registers (or replaces) the clearer for kind.
func RegisterClear(kind string, fn TableClearer) {
	clearMu.Lock()
	defer clearMu.Unlock()
	clearFns[kind] = fn
}

// HasClear reports whether kind keeps rows between runs and must be cleared.
func HasClear(kind string) bool {
	clearMu.RLock()
	defer clearMu.RUnlock()
	_, ok := clearFns[kind]
	return ok
}

// ClearTable runs the clearer registered for kind.
func ClearTable(ctx context.Context, kind string, repo Repository, table string) error {
	clearMu.RLock()
	fn, ok := clearFns[kind]
	clearMu.RUnlock()
	if !ok {
		return eris.Errorf("no table clearer registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, table)
}
