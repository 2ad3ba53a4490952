package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"energyetl/internal/config"
	"energyetl/internal/pipeline"
)

func runCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and export the enriched tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPipeline(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, p, cmd.OutOrStdout())
		},
	}
}

// runOnce runs p under a fresh run ID and reports the result to w. A
// cancelled ctx stops loading or export at the next row.
func runOnce(ctx context.Context, p config.Pipeline, w io.Writer) error {
	runID := newRunID()
	teardown, err := setup(p, runID)
	if err != nil {
		return err
	}
	defer teardown()

	rep, err := pipeline.Run(ctx, p, runID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			zap.L().Warn("run: interrupted", zap.Int64("enriched_written", rep.Export.Enriched))
			return eris.Wrap(err, "run interrupted")
		}
		return err
	}
	fmt.Fprintf(w, "run %s: %s records enriched, %d summary years, %s\n",
		rep.RunID,
		humanize.Comma(rep.Export.Enriched),
		rep.Export.Summary,
		rep.Took.Round(time.Millisecond),
	)
	return nil
}
