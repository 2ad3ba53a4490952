// Command energyetl enriches the OWID energy table and exports it.
//
//	energyetl validate -c pipeline.yaml
//	energyetl run -c pipeline.yaml
//	energyetl serve -c pipeline.yaml --addr :8080
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"energyetl/internal/config"
	"energyetl/internal/logging"
	"energyetl/internal/metrics"
	"energyetl/internal/metrics/datadog"
	"energyetl/internal/metrics/prompush"

	// register all sinks with the storage factory; the pipeline file picks one.
	_ "energyetl/internal/storage/all"
)

const defaultDogStatsDAddr = "127.0.0.1:8125"

type rootOptions struct {
	cfgPath        string
	verbose        bool
	metricsBackend string
	pushgatewayURL string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "energyetl",
		Short: "Clean, enrich and export the OWID energy dataset",
		Long: `energyetl loads the Our World in Data energy table, filters it to
country-level records from 1990 on, derives shares, intensities, growth rates
and classification flags, checks data quality and writes the enriched table
plus a yearly summary to a file or SQL sink.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&opts.cfgPath, "config", "c", "configs/pipeline.yaml", "pipeline file (JSON or YAML)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&opts.metricsBackend, "metrics-backend", "", "override metrics.backend (none, prompush, datadog)")
	pf.StringVar(&opts.pushgatewayURL, "pushgateway-url", "", "override metrics.pushgateway_url")

	root.AddCommand(validateCmd(opts), runCmd(opts), serveCmd(opts), probeCmd())
	return root
}

func validateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the pipeline file and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadPipeline(opts, cmd.ErrOrStderr()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", opts.cfgPath)
			return nil
		},
	}
}

// loadPipeline loads the pipeline file, applies flag overrides and prints
// every validation issue to w. It fails when any issue is an error.
func loadPipeline(opts *rootOptions, w io.Writer) (config.Pipeline, error) {
	p, err := config.Load(opts.cfgPath)
	if err != nil {
		return config.Pipeline{}, err
	}
	if opts.metricsBackend != "" {
		p.Metrics.Backend = opts.metricsBackend
	}
	if opts.pushgatewayURL != "" {
		p.Metrics.PushgatewayURL = opts.pushgatewayURL
	}
	if opts.verbose {
		p.Log.Level = "debug"
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return config.Pipeline{}, eris.Errorf("configuration is invalid: %s", opts.cfgPath)
	}
	return p, nil
}

// setup installs the process logger and the metrics backend for one run. The
// returned func flushes metrics and restores the previous logger.
func setup(p config.Pipeline, runID string) (func(), error) {
	restoreLog, err := logging.Install(p.Log.Level, p.Log.Format,
		zap.String("job", p.Job), zap.String("run_id", runID))
	if err != nil {
		return nil, err
	}

	b, err := newMetricsBackend(p, runID)
	if err != nil {
		zap.L().Warn("metrics: backend init failed; metrics disabled",
			zap.String("backend", p.Metrics.Backend), zap.Error(err))
	} else if b != nil {
		metrics.SetBackend(b)
		zap.L().Info("metrics: backend enabled", zap.String("backend", p.Metrics.Backend))
	}

	return func() {
		if b != nil {
			if err := metrics.Flush(); err != nil {
				zap.L().Warn("metrics: flush failed", zap.Error(err))
			}
			metrics.Reset()
		}
		restoreLog()
	}, nil
}

// newMetricsBackend returns nil for the "" and "none" backends.
func newMetricsBackend(p config.Pipeline, runID string) (metrics.Backend, error) {
	switch p.Metrics.Backend {
	case "", "none":
		return nil, nil
	case "prompush":
		return prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL, runID)
	case "datadog":
		addr := p.Metrics.DatadogAddr
		if addr == "" {
			addr = defaultDogStatsDAddr
		}
		return datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "energyetl.",
			GlobalTags: []string{"run_id:" + runID},
		})
	default:
		return nil, eris.Errorf("unknown metrics backend %q", p.Metrics.Backend)
	}
}

func newRunID() string { return uuid.NewString() }
