// Package config defines the configuration model of an energyetl run and
// loads it from a JSON or YAML pipeline file, with environment overrides.
//
// Example (trimmed):
//
//	{
//	  "job":     "owid-energy",
//	  "source":  { "kind": "file", "file": { "path": "owid-energy-data.csv" } },
//	  "parser":  { "kind": "csv", "options": { "comma": "," } },
//	  "filter":  { "max_year": 2022 },
//	  "storage": { "kind": "csv", "file": { "path": "cleaned_data.csv", "summary_path": "summary_statistics.csv" } },
//	  "output":  { "quality_path": "quality.json" }
//	}
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels metrics and log lines of this run.
	Job string `json:"job" yaml:"job" validate:"required"`

	Source  Source        `json:"source" yaml:"source"`
	Parser  Parser        `json:"parser" yaml:"parser"`
	Filter  Filter        `json:"filter" yaml:"filter"`
	Storage Storage       `json:"storage" yaml:"storage"`
	Output  Output        `json:"output" yaml:"output"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Serve   ServeConfig   `json:"serve" yaml:"serve"`
}

// RuntimeConfig controls concurrency and batching.
type RuntimeConfig struct {
	// Workers bounds concurrent growth-rate partitions. Zero means GOMAXPROCS.
	Workers       int `json:"workers" yaml:"workers" validate:"gte=0"`
	BatchSize     int `json:"batch_size" yaml:"batch_size" validate:"gte=0"`
	ChannelBuffer int `json:"channel_buffer" yaml:"channel_buffer" validate:"gte=0"`
}

// Source identifies the input: "file" or "http".
type Source struct {
	Kind string     `json:"kind" yaml:"kind" validate:"required"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind, e.g. the
// published owid-energy-data.csv URL.
type SourceHTTP struct {
	URL            string `json:"url" yaml:"url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
	MaxRetries     int    `json:"max_retries" yaml:"max_retries" validate:"gte=0"`
}

// Parser selects how the raw source is read.
type Parser struct {
	Kind string `json:"kind" yaml:"kind" validate:"required"`

	// Options is interpreted by the parser. For CSV:
	//   comma (string), header_map (object, source name -> column name)
	Options Options `json:"options" yaml:"options"`
}

// Filter narrows the kept records beyond the fixed filtering rules.
type Filter struct {
	// MaxYear drops records after this year. Zero disables the bound.
	MaxYear int `json:"max_year" yaml:"max_year" validate:"gte=0"`
	// Countries, when non-empty, keeps only the listed country names.
	Countries []string `json:"countries" yaml:"countries"`
	// CountriesFile names a list file (one country per line, # comments)
	// appended to Countries.
	CountriesFile string `json:"countries_file" yaml:"countries_file"`
}

// Storage selects the sink for the enriched and summary tables.
type Storage struct {
	// Kind is one of csv, xlsx, sqlite, postgres, mssql, mysql.
	Kind string `json:"kind" yaml:"kind" validate:"required"`

	DB   DBConfig   `json:"db" yaml:"db"`
	File FileConfig `json:"file" yaml:"file"`
}

// DBConfig configures the SQL sinks.
type DBConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`

	// Table receives the enriched records (e.g. "public.energy").
	Table string `json:"table" yaml:"table"`

	// SummaryTable receives the yearly summary (e.g. "public.energy_summary").
	SummaryTable string `json:"summary_table" yaml:"summary_table"`

	// AutoCreateTable creates missing tables from the output layout.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// FileConfig configures the csv and xlsx sinks. For xlsx both tables go to
// Path as two sheets and SummaryPath is ignored.
type FileConfig struct {
	Path        string `json:"path" yaml:"path"`
	SummaryPath string `json:"summary_path" yaml:"summary_path"`
}

// Output holds auxiliary outputs.
type Output struct {
	// QualityPath, when set, receives the quality report as JSON.
	QualityPath string `json:"quality_path" yaml:"quality_path"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=json console"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	// Backend is "", "none", "prompush" or "datadog".
	Backend        string `json:"backend" yaml:"backend" validate:"omitempty,oneof=none prompush datadog"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
}

// ServeConfig configures the read-only HTTP API.
type ServeConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Env holds environment overrides. Set values win over the pipeline file.
type Env struct {
	Job            string `envconfig:"JOB"`
	SourcePath     string `envconfig:"SOURCE_PATH"`
	SourceURL      string `envconfig:"SOURCE_URL"`
	StorageKind    string `envconfig:"STORAGE_KIND"`
	DSN            string `envconfig:"DB_DSN"`
	OutputPath     string `envconfig:"OUTPUT_PATH"`
	Workers        int    `envconfig:"WORKERS"`
	BatchSize      int    `envconfig:"BATCH_SIZE"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFormat      string `envconfig:"LOG_FORMAT"`
	MetricsBackend string `envconfig:"METRICS_BACKEND"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
	DatadogAddr    string `envconfig:"DATADOG_ADDR"`
	ServeAddr      string `envconfig:"SERVE_ADDR"`
}

// EnvPrefix prefixes every override variable, e.g. ENERGYETL_DB_DSN.
const EnvPrefix = "ENERGYETL"

// Defaults applied by ApplyDefaults.
const (
	DefaultBatchSize     = 5000
	DefaultChannelBuffer = 8
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultServeAddr     = ":8080"
)

// Load reads the pipeline file at path, applies environment overrides and
// defaults. The decoder is picked by extension: .yaml/.yml use YAML, anything
// else JSON. Load does not validate; call ValidatePipeline.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, eris.Wrapf(err, "config: read %s", path)
	}
	p, err := Decode(b, filepath.Ext(path))
	if err != nil {
		return Pipeline{}, eris.Wrapf(err, "config: decode %s", path)
	}

	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Pipeline{}, eris.Wrap(err, "config: environment")
	}
	p.ApplyEnv(env)
	p.ApplyDefaults()
	return p, nil
}

// Decode parses b as YAML when ext is .yaml or .yml and as JSON otherwise.
func Decode(b []byte, ext string) (Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &p); err != nil {
			return Pipeline{}, err
		}
	default:
		if err := json.Unmarshal(b, &p); err != nil {
			return Pipeline{}, err
		}
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	return p, nil
}

// ApplyEnv copies every set field of e into p.
func (p *Pipeline) ApplyEnv(e Env) {
	setString(&p.Job, e.Job)
	setString(&p.Source.File.Path, e.SourcePath)
	setString(&p.Source.HTTP.URL, e.SourceURL)
	setString(&p.Storage.Kind, e.StorageKind)
	setString(&p.Storage.DB.DSN, e.DSN)
	setString(&p.Storage.File.Path, e.OutputPath)
	setString(&p.Log.Level, e.LogLevel)
	setString(&p.Log.Format, e.LogFormat)
	setString(&p.Metrics.Backend, e.MetricsBackend)
	setString(&p.Metrics.PushgatewayURL, e.PushgatewayURL)
	setString(&p.Metrics.DatadogAddr, e.DatadogAddr)
	setString(&p.Serve.Addr, e.ServeAddr)
	if e.Workers > 0 {
		p.Runtime.Workers = e.Workers
	}
	if e.BatchSize > 0 {
		p.Runtime.BatchSize = e.BatchSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ApplyDefaults fills unset fields that have a safe default.
func (p *Pipeline) ApplyDefaults() {
	if p.Source.Kind == "" {
		p.Source.Kind = "file"
	}
	if p.Parser.Kind == "" {
		p.Parser.Kind = "csv"
	}
	if p.Runtime.BatchSize == 0 {
		p.Runtime.BatchSize = DefaultBatchSize
	}
	if p.Runtime.ChannelBuffer == 0 {
		p.Runtime.ChannelBuffer = DefaultChannelBuffer
	}
	if p.Log.Level == "" {
		p.Log.Level = DefaultLogLevel
	}
	if p.Log.Format == "" {
		p.Log.Format = DefaultLogFormat
	}
	if p.Serve.Addr == "" {
		p.Serve.Addr = DefaultServeAddr
	}
}

// Options is a small helper to fetch typed values from a free-form options
// map. It performs minimal coercion and returns def when a key is absent or
// of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns the string-valued entries of an object under key.
// Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON decodes a missing or null options object to an empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
