// Package pipeline runs one enrichment job end to end: open the source, load
// the CSV, enrich, report quality and export.
package pipeline

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"energyetl/internal/config"
	"energyetl/internal/datasource"
	"energyetl/internal/datasource/file"
	"energyetl/internal/datasource/httpds"
	"energyetl/internal/enrich"
	"energyetl/internal/export"
	"energyetl/internal/metrics"
	csvparser "energyetl/internal/parser/csv"
	"energyetl/internal/records"
)

// completenessTail is how many of the latest years are logged.
const completenessTail = 5

// Report summarizes a finished run.
type Report struct {
	RunID  string
	Load   csvparser.Stats
	Result enrich.Result
	Export export.Stats
	Took   time.Duration
}

// Test seams.
var (
	openSourceFn = OpenSource
	readListFn   = file.ReadList
)

// OpenSource builds the datasource selected by s.Kind.
func OpenSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "", "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		return httpds.NewSource(s.HTTP.URL, httpds.Config{
			Timeout:    time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries: s.HTTP.MaxRetries,
		}), nil
	default:
		return nil, eris.Errorf("unsupported source.kind=%q", s.Kind)
	}
}

// Process loads and enriches without exporting. It backs both Run and the
// serve command.
func Process(ctx context.Context, p config.Pipeline) (csvparser.Stats, enrich.Result, error) {
	src, err := openSourceFn(p.Source)
	if err != nil {
		return csvparser.Stats{}, enrich.Result{}, err
	}

	start := time.Now()
	raw, stats, err := csvparser.Load(ctx, src, csvparser.OptionsFrom(p.Parser), p.Runtime.ChannelBuffer)
	metrics.RecordStep(p.Job, "load", err, time.Since(start))
	if err != nil {
		return stats, enrich.Result{}, eris.Wrap(err, "load source")
	}
	metrics.RecordRow(p.Job, "loaded", int64(stats.Rows))
	metrics.RecordRow(p.Job, "skipped", int64(stats.Skipped))
	zap.L().Info("pipeline: source loaded",
		zap.String("rows", humanize.Comma(int64(stats.Rows))),
		zap.Int("skipped", stats.Skipped),
		zap.Int("columns", len(raw.Columns)),
	)

	countries, err := allowList(p.Filter)
	if err != nil {
		return stats, enrich.Result{}, err
	}

	res, err := enrich.Enrich(p.Job, raw, enrich.Options{
		MaxYear:   p.Filter.MaxYear,
		Countries: countries,
		Workers:   p.Runtime.Workers,
		OnDuplicate: func(k records.Key) {
			zap.L().Debug("pipeline: duplicate dropped", zap.String("iso_code", k.ISOCode), zap.Int("year", k.Year))
		},
	})
	if err != nil {
		return stats, enrich.Result{}, err
	}
	logQuality(p.Job, res.Quality)
	return stats, res, nil
}

// Run executes the whole job described by p under runID.
func Run(ctx context.Context, p config.Pipeline, runID string) (Report, error) {
	start := time.Now()
	rep := Report{RunID: runID}

	stats, res, err := Process(ctx, p)
	rep.Load, rep.Result = stats, res
	if err != nil {
		return rep, err
	}

	if path := p.Output.QualityPath; path != "" {
		if err := export.WriteQuality(path, res.Quality); err != nil {
			return rep, err
		}
		zap.L().Info("pipeline: quality report written", zap.String("path", path))
	}

	ex, err := export.New(p.Job, p.Storage, p.Runtime)
	if err != nil {
		return rep, err
	}
	exportStart := time.Now()
	rep.Export, err = ex.Export(ctx, res.Table, res.Summary)
	metrics.RecordStep(p.Job, "export", err, time.Since(exportStart))
	if err != nil {
		return rep, err
	}

	rep.Took = time.Since(start)
	zap.L().Info("pipeline: done",
		zap.String("loaded", humanize.Comma(int64(stats.Rows))),
		zap.String("enriched", humanize.Comma(int64(res.Table.Len()))),
		zap.Int("summary_years", len(res.Summary)),
		zap.Bool("quality_clean", res.Quality.Clean()),
		zap.Duration("took", rep.Took.Truncate(time.Millisecond)),
	)
	return rep, nil
}

// allowList merges filter.countries with the countries_file entries.
func allowList(f config.Filter) ([]string, error) {
	out := append([]string(nil), f.Countries...)
	if f.CountriesFile == "" {
		return out, nil
	}
	more, err := readListFn(f.CountriesFile)
	if err != nil {
		return nil, err
	}
	return append(out, more...), nil
}

// logQuality emits the diagnostic lines of a quality report and counts its
// warnings.
func logQuality(job string, q enrich.QualityReport) {
	l := zap.L()
	if n := len(q.NegativeColumns); n > 0 {
		l.Warn("quality: negative values found", zap.Strings("columns", q.NegativeColumns))
		metrics.RecordQuality(job, "negative_column", int64(n))
	}
	if q.Duplicates > 0 {
		l.Warn("quality: duplicate identities dropped", zap.Int("count", q.Duplicates))
		metrics.RecordQuality(job, "duplicate", int64(q.Duplicates))
	}

	tail := q.Completeness
	if len(tail) > completenessTail {
		tail = tail[len(tail)-completenessTail:]
	}
	for _, c := range tail {
		l.Info("quality: completeness",
			zap.Int("year", c.Year),
			zap.Int("total_countries", c.Total),
			zap.Int("with_energy_data", c.WithEnergy),
			zap.Int("with_gdp_data", c.WithGDP),
		)
	}
}
