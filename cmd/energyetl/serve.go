package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"energyetl/internal/api"
	"energyetl/internal/config"
	"energyetl/internal/metrics"
	"energyetl/internal/metrics/prompush"
	"energyetl/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Enrich in memory and serve the results over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPipeline(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				p.Serve.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, p, newRunID())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides serve.addr)")
	return cmd
}

// serve processes p once, then serves the result until ctx is done.
func serve(ctx context.Context, p config.Pipeline, runID string) error {
	// serve never pushes; metrics are scraped from /metrics.
	p.Metrics.Backend = "none"
	teardown, err := setup(p, runID)
	if err != nil {
		return err
	}
	defer teardown()

	reg := prometheus.NewRegistry()
	b, err := prompush.NewScrapeBackend(reg, p.Job)
	if err != nil {
		return err
	}
	metrics.SetBackend(b)
	defer metrics.Reset()

	_, res, err := pipeline.Process(ctx, p)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: p.Serve.Addr,
		Handler: api.NewRouter(api.Dataset{
			RunID:   runID,
			Table:   res.Table,
			Summary: res.Summary,
			Quality: res.Quality,
		}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("serve: listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrapf(err, "serve: listen %s", srv.Addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	zap.L().Info("serve: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "serve: shutdown")
	}
	return nil
}
