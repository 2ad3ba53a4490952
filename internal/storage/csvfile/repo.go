// Package csvfile implements the "csv" sink: one CSV file per table, with a
// header row written from the first batch's columns.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"energyetl/internal/records"
	"energyetl/internal/storage"
)

// Repository writes rows to a CSV file.
type Repository struct {
	path   string
	f      *os.File
	buf    *bufio.Writer
	w      *csv.Writer
	header bool
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates (or truncates) path, creating parent directories.
func NewRepository(path string) (*Repository, error) {
	if path == "" {
		return nil, eris.New("csv sink: path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "csv sink: mkdir %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv sink: create %s", path)
	}
	buf := bufio.NewWriterSize(f, 1<<20)
	return &Repository{path: path, f: f, buf: buf, w: csv.NewWriter(buf)}, nil
}

// CopyFrom appends rows, writing the header before the first batch.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !r.header {
		if err := r.w.Write(columns); err != nil {
			return 0, eris.Wrapf(err, "csv sink: write header to %s", r.path)
		}
		r.header = true
	}
	rec := make([]string, len(columns))
	var n int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return n, eris.Errorf("csv sink: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			rec[i] = FormatCell(v)
		}
		if err := r.w.Write(rec); err != nil {
			return n, eris.Wrapf(err, "csv sink: write %s", r.path)
		}
		n++
	}
	return n, nil
}

// Exec is a no-op; CSV files have no schema.
func (r *Repository) Exec(context.Context, string) error { return nil }

// Close flushes buffered rows and closes the file. A table that never
// received a batch is left as an empty file.
func (r *Repository) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		_ = r.f.Close()
		return eris.Wrapf(err, "csv sink: flush %s", r.path)
	}
	if err := r.buf.Flush(); err != nil {
		_ = r.f.Close()
		return eris.Wrapf(err, "csv sink: flush %s", r.path)
	}
	if err := r.f.Close(); err != nil {
		return eris.Wrapf(err, "csv sink: close %s", r.path)
	}
	return nil
}

// FormatCell renders one row value. nil is an empty cell; floats use the
// shortest round-trip form and booleans True/False.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return records.FormatFloat(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return records.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(cfg.DSN)
	})
}
