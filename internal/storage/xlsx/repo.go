// Package xlsx implements the "xlsx" sink: each table is a sheet of one
// workbook, written with excelize's streaming writer.
//
// Tables sharing a path must be written one after another (open, copy,
// close); the second repository reopens the workbook and adds its sheet.
package xlsx

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"energyetl/internal/storage"
)

const defaultSheet = "Sheet1"

// Repository streams rows into one sheet.
type Repository struct {
	path  string
	sheet string
	f     *excelize.File
	sw    *excelize.StreamWriter
	row   int
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository opens path (or starts a new workbook) and replaces sheet.
func NewRepository(path, sheet string) (*Repository, error) {
	if path == "" {
		return nil, eris.New("xlsx sink: path must not be empty")
	}
	if sheet == "" {
		sheet = defaultSheet
	}

	f, fresh, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	if err := prepareSheet(f, sheet, fresh); err != nil {
		_ = f.Close()
		return nil, err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		_ = f.Close()
		return nil, eris.Wrapf(err, "xlsx sink: stream writer for %s", sheet)
	}
	return &Repository{path: path, sheet: sheet, f: f, sw: sw}, nil
}

// prepareSheet leaves an empty sheet named sheet in f and makes it active.
// An existing sheet is replaced through a temporary one, since excelize will
// not delete a workbook's only sheet.
func prepareSheet(f *excelize.File, sheet string, fresh bool) error {
	idx, _ := f.GetSheetIndex(sheet)
	switch {
	case idx >= 0 && fresh:
		// New workbook whose default sheet is the target.
	case idx >= 0:
		const tmp = "energyetl_tmp"
		if _, err := f.NewSheet(tmp); err != nil {
			return eris.Wrapf(err, "xlsx sink: replace sheet %s", sheet)
		}
		if err := f.DeleteSheet(sheet); err != nil {
			return eris.Wrapf(err, "xlsx sink: replace sheet %s", sheet)
		}
		if err := f.SetSheetName(tmp, sheet); err != nil {
			return eris.Wrapf(err, "xlsx sink: replace sheet %s", sheet)
		}
	default:
		if _, err := f.NewSheet(sheet); err != nil {
			return eris.Wrapf(err, "xlsx sink: new sheet %s", sheet)
		}
		if fresh {
			if err := f.DeleteSheet(defaultSheet); err != nil {
				return eris.Wrap(err, "xlsx sink: drop default sheet")
			}
		}
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return eris.Wrapf(err, "xlsx sink: sheet %s", sheet)
	}
	f.SetActiveSheet(idx)
	return nil
}

func openWorkbook(path string) (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(path)
	if err == nil {
		return f, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, eris.Wrapf(err, "xlsx sink: open %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, eris.Wrapf(err, "xlsx sink: mkdir %s", dir)
		}
	}
	return excelize.NewFile(), true, nil
}

// CopyFrom appends rows, writing the header row before the first batch.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if r.row == 0 {
		header := make([]any, len(columns))
		for i, c := range columns {
			header[i] = c
		}
		if err := r.setRow(header); err != nil {
			return 0, err
		}
	}
	var n int64
	for _, row := range rows {
		if len(row) != len(columns) {
			return n, eris.Errorf("xlsx sink: row length %d != columns length %d", len(row), len(columns))
		}
		if err := r.setRow(row); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *Repository) setRow(values []any) error {
	r.row++
	cell, err := excelize.CoordinatesToCellName(1, r.row)
	if err != nil {
		return eris.Wrap(err, "xlsx sink: cell name")
	}
	if err := r.sw.SetRow(cell, values); err != nil {
		return eris.Wrapf(err, "xlsx sink: write %s!%s", r.sheet, cell)
	}
	return nil
}

// Exec is a no-op; sheets have no schema.
func (r *Repository) Exec(context.Context, string) error { return nil }

// Close flushes the stream and saves the workbook.
func (r *Repository) Close() error {
	defer r.f.Close()
	if err := r.sw.Flush(); err != nil {
		return eris.Wrapf(err, "xlsx sink: flush %s", r.sheet)
	}
	if err := r.f.SaveAs(r.path); err != nil {
		return eris.Wrapf(err, "xlsx sink: save %s", r.path)
	}
	return nil
}

func init() {
	storage.Register("xlsx", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(cfg.DSN, cfg.Table)
	})
}
