package csv

import (
	"context"
	"io"
	"math"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"energyetl/internal/datasource"
	"energyetl/internal/records"
)

// maxLoggedRowErrors caps per-row warnings; the rest are only counted.
const maxLoggedRowErrors = 50

// Stats counts what Load saw.
type Stats struct {
	Rows    int
	Skipped int
}

// Load opens src and reads it into a Table. Skipped rows are logged and
// counted, never fatal.
func Load(ctx context.Context, src datasource.Source, opt Options, buffer int) (records.Table, Stats, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return records.Table{}, Stats{}, err
	}
	defer rc.Close()
	return Read(ctx, rc, opt, buffer)
}

// Read parses r into a Table. The reader goroutine streams rows through a
// channel of capacity buffer while the caller's goroutine builds records.
func Read(ctx context.Context, r io.Reader, opt Options, buffer int) (records.Table, Stats, error) {
	if buffer <= 0 {
		buffer = 1
	}
	rows := make(chan []string, buffer)
	headerCh := make(chan []string, 1)
	var stats Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		return StreamCSV(gctx, r, opt,
			func(h []string) { headerCh <- h },
			rows,
			func(line int, err error) {
				stats.Skipped++
				if stats.Skipped <= maxLoggedRowErrors {
					zap.L().Warn("csv: skipping row", zap.Int("line", line), zap.Error(err))
				}
			},
		)
	})

	var t records.Table
	var idx columnIndex
	for row := range rows {
		if t.Columns == nil {
			t.Columns = <-headerCh
			idx = indexColumns(t.Columns)
		}
		t.Records = append(t.Records, idx.record(t.Columns, row))
	}
	if err := g.Wait(); err != nil {
		return records.Table{}, stats, err
	}
	if t.Columns == nil {
		// Header only.
		select {
		case h := <-headerCh:
			t.Columns = h
		default:
		}
	}
	stats.Rows = len(t.Records)
	return t, stats, nil
}

type columnIndex struct {
	country, iso, year int
}

func indexColumns(cols []string) columnIndex {
	idx := columnIndex{-1, -1, -1}
	for i, c := range cols {
		switch c {
		case records.ColCountry:
			idx.country = i
		case records.ColISOCode:
			idx.iso = i
		case records.ColYear:
			idx.year = i
		}
	}
	return idx
}

func (idx columnIndex) record(cols, row []string) records.Record {
	r := records.Record{Source: make(map[string]records.Cell, len(cols))}
	for i, c := range cols {
		switch i {
		case idx.country:
			r.Country = row[i]
		case idx.iso:
			r.ISOCode = row[i]
		case idx.year:
			r.Year, r.YearOK = parseYear(row[i])
		default:
			r.Source[c] = records.ParseCell(row[i])
		}
	}
	return r
}

// parseYear accepts integers and integral floats such as "2000.0".
func parseYear(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
