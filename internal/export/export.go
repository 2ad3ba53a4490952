// Package export writes the enriched table and the yearly summary to the
// configured sink, plus the optional JSON quality report.
package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"energyetl/internal/config"
	"energyetl/internal/enrich"
	"energyetl/internal/metrics"
	"energyetl/internal/records"
	"energyetl/internal/storage"
)

// Sheet names used by the xlsx sink.
const (
	EnrichedSheet = "energy"
	SummarySheet  = "summary"
)

// Defaults applied when the runtime config leaves batching unset.
const (
	DefaultBatchSize = 5000
	DefaultBuffer    = 8
)

// Target is one output table.
type Target struct {
	Kind  string
	DSN   string
	Table string
}

// Exporter writes both tables. A Summary target with an empty DSN is skipped.
type Exporter struct {
	Job        string
	Enriched   Target
	Summary    Target
	AutoCreate bool
	BatchSize  int
	Buffer     int
}

// Stats reports rows written per table.
type Stats struct {
	Enriched int64
	Summary  int64
}

// New maps the storage section of a pipeline onto targets.
func New(job string, s config.Storage, rt config.RuntimeConfig) (Exporter, error) {
	e := Exporter{Job: job, BatchSize: rt.BatchSize, Buffer: rt.ChannelBuffer}
	switch {
	case s.Kind == "csv":
		e.Enriched = Target{Kind: s.Kind, DSN: s.File.Path}
		e.Summary = Target{Kind: s.Kind, DSN: s.File.SummaryPath}
	case s.Kind == "xlsx":
		e.Enriched = Target{Kind: s.Kind, DSN: s.File.Path, Table: EnrichedSheet}
		e.Summary = Target{Kind: s.Kind, DSN: s.File.Path, Table: SummarySheet}
	case slices.Contains(config.SQLKinds, s.Kind):
		e.Enriched = Target{Kind: s.Kind, DSN: s.DB.DSN, Table: s.DB.Table}
		if s.DB.SummaryTable != "" {
			e.Summary = Target{Kind: s.Kind, DSN: s.DB.DSN, Table: s.DB.SummaryTable}
		}
		e.AutoCreate = s.DB.AutoCreateTable
	default:
		return Exporter{}, eris.Errorf("export: unsupported storage.kind=%q", s.Kind)
	}
	return e, nil
}

// Export writes t and then summary. Cancelling ctx aborts the in-flight
// table.
func (e Exporter) Export(ctx context.Context, t records.Table, summary []enrich.YearSummary) (Stats, error) {
	var st Stats

	cols := records.OutputColumns(t, records.TextColumns(t))
	n, err := e.write(ctx, e.Enriched, storage.TableSpec{Table: e.Enriched.Table, Columns: cols},
		len(t.Records), func(i int) []any { return t.Records[i].Values(cols) })
	st.Enriched = n
	if err != nil {
		return st, eris.Wrap(err, "export enriched table")
	}

	if e.Summary.DSN == "" {
		zap.L().Info("export: no summary target configured; summary skipped")
		return st, nil
	}
	spec := storage.TableSpec{Table: e.Summary.Table, Columns: enrich.SummaryColumns, Key: []string{records.ColYear}}
	n, err = e.write(ctx, e.Summary, spec, len(summary), func(i int) []any { return summary[i].Values() })
	st.Summary = n
	if err != nil {
		return st, eris.Wrap(err, "export summary table")
	}
	return st, nil
}

// write replaces the contents of one target with count rows streamed through
// storage.LoadBatches.
func (e Exporter) write(ctx context.Context, tgt Target, spec storage.TableSpec, count int, row func(int) []any) (n int64, err error) {
	repo, err := storage.New(ctx, storage.Config{Kind: tgt.Kind, DSN: tgt.DSN, Table: tgt.Table})
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if e.AutoCreate && storage.HasDDL(tgt.Kind) {
		if err := storage.EnsureTable(ctx, tgt.Kind, repo, spec); err != nil {
			return 0, eris.Wrapf(err, "ensure table %s", tgt.Table)
		}
	}
	if storage.HasClear(tgt.Kind) {
		if err := storage.ClearTable(ctx, tgt.Kind, repo, tgt.Table); err != nil {
			return 0, eris.Wrapf(err, "clear table %s", tgt.Table)
		}
	}

	names := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		names[i] = c.Name
	}
	batch := e.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	buffer := e.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	rows := make(chan []any, buffer)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		for i := 0; i < count; i++ {
			select {
			case rows <- row(i):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		var lerr error
		n, lerr = storage.LoadBatches(gctx, e.Job, names, rows, batch, repo.CopyFrom)
		return lerr
	})
	if err := g.Wait(); err != nil {
		return n, err
	}

	metrics.RecordRow(e.Job, "exported", n)
	zap.L().Info("export: table written",
		zap.String("kind", tgt.Kind),
		zap.String("target", describe(tgt)),
		zap.Int64("rows", n),
	)
	return n, nil
}

func describe(t Target) string {
	if t.Table == "" {
		return t.DSN
	}
	if t.Kind == "xlsx" {
		return t.DSN + "#" + t.Table
	}
	return t.Table
}

// WriteQuality writes q as indented JSON to path, creating parent
// directories.
func WriteQuality(path string, q enrich.QualityReport) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "quality report: mkdir %s", dir)
		}
	}
	b, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return eris.Wrap(err, "quality report: encode")
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "quality report: write %s", path)
	}
	return nil
}
