package main

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"energyetl/internal/config"
	csvparser "energyetl/internal/parser/csv"
	"energyetl/internal/pipeline"
	"energyetl/internal/probe"
)

type probeOptions struct {
	url        string
	path       string
	comma      string
	rows       int
	name       string
	backend    string
	emitConfig bool
}

func probeCmd() *cobra.Command {
	o := &probeOptions{}
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Sample a source CSV, profile its columns and check the schema",
		Long: `probe reads the head of a source CSV and prints a JSON column profile
with the required columns it lacks. With --emit-config it prints a starter
pipeline file (YAML) instead, to be edited and passed to run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := o.source()
			if err != nil {
				return err
			}
			comma, err := parseComma(o.comma)
			if err != nil {
				return err
			}
			parser := csvparser.Options{Comma: comma}

			if o.emitConfig {
				p := probe.StarterPipeline(o.name, o.backend, src, parser)
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(p); err != nil {
					return eris.Wrap(err, "probe: encode pipeline")
				}
				return enc.Close()
			}

			ds, err := pipeline.OpenSource(src)
			if err != nil {
				return err
			}
			res, err := probe.Probe(cmd.Context(), ds, probe.Options{MaxRows: o.rows, Parser: parser})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return eris.Wrap(err, "probe: encode result")
			}
			if !res.Ready() {
				return eris.Errorf("source lacks required columns: %s", strings.Join(res.Missing, ", "))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.url, "url", "", "http(s) URL of the source CSV")
	f.StringVar(&o.path, "path", "", "local path of the source CSV")
	f.StringVar(&o.comma, "comma", ",", "field delimiter")
	f.IntVar(&o.rows, "rows", probe.DefaultMaxRows, "maximum data rows to sample")
	f.StringVar(&o.name, "name", "owid_energy", "dataset name used for job, table and file names")
	f.StringVar(&o.backend, "backend", "csv", "sink of the starter config: csv, xlsx, sqlite, postgres, mssql, mysql")
	f.BoolVar(&o.emitConfig, "emit-config", false, "print a starter pipeline file instead of the profile")
	return cmd
}

func (o *probeOptions) source() (config.Source, error) {
	switch {
	case o.url != "" && o.path != "":
		return config.Source{}, eris.New("probe: --url and --path are mutually exclusive")
	case o.url != "":
		return config.Source{Kind: "http", HTTP: config.SourceHTTP{
			URL:            o.url,
			TimeoutSeconds: 60,
			MaxRetries:     2,
		}}, nil
	case o.path != "":
		return config.Source{Kind: "file", File: config.SourceFile{Path: o.path}}, nil
	default:
		return config.Source{}, eris.New("probe: one of --url or --path is required")
	}
}

func parseComma(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, eris.Errorf("probe: --comma must be a single character, got %q", s)
	}
	return r[0], nil
}
