// Package csv reads the raw energy CSV into a records.Table.
//
// StreamCSV emits rows without whole-file buffering; Load collects them into
// typed records, lifting country, iso_code and year out of the source cells.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"energyetl/internal/config"
)

// Options configures the reader.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// HeaderMap renames source header cells before normalization.
	HeaderMap map[string]string
}

// OptionsFrom reads Options from a parser config block.
func OptionsFrom(p config.Parser) Options {
	return Options{
		Comma:     p.Options.Rune("comma", ','),
		HeaderMap: p.Options.StringMap("header_map"),
	}
}

// StreamCSV reads the header row of r, then sends every data row with the
// header's width to out. Rows of a different width and per-row parse errors
// are reported via onError(line, err) and skipped. Values are trimmed.
//
// It returns the normalized header through onHeader before the first row.
// A missing header is fatal. The caller closes out.
func StreamCSV(
	ctx context.Context,
	r io.Reader,
	opt Options,
	onHeader func([]string),
	out chan<- []string,
	onError func(line int, err error),
) error {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	h, err := cr.Read()
	if err == io.EOF {
		return eris.New("read csv header: empty input")
	}
	if err != nil {
		return eris.Wrap(err, "read csv header")
	}
	headers := normalizeHeaders(h, opt.HeaderMap)
	if onHeader != nil {
		onHeader(headers)
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			if onError != nil {
				onError(line, fmt.Errorf("parse: %w", err))
			}
			continue
		}
		if len(rec) != len(headers) {
			if onError != nil {
				onError(line, fmt.Errorf("incorrect number of fields: expected %d, got %d", len(headers), len(rec)))
			}
			continue
		}

		row := make([]string, len(rec))
		for i, v := range rec {
			row[i] = strings.TrimSpace(v)
		}

		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
