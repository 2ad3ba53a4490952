// Package storage contains the sink contract shared by every output backend
// and a factory keyed by storage.kind. Backends register themselves from
// init; import internal/storage/all to enable every built-in kind.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// Repository is one output table. CopyFrom appends rows aligned to columns
// and reports how many were written; Exec runs DDL.
type Repository interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Close() error
}

// Config selects and parameterizes a backend.
//
// DSN is the connection string for SQL kinds and the output path for file
// kinds. Table is the target table (SQL) or sheet name (xlsx).
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, eris.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
