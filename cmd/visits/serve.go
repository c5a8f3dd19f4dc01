package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jdziat/simple-recurring-visits/pkg/horizon"
	"github.com/jdziat/simple-recurring-visits/pkg/materialize"
	"github.com/jdziat/simple-recurring-visits/pkg/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Keep configured patterns materialized ahead",
		Long: `Run the horizon runner: on every tick of horizon.schedule, top up each
configured plan to its number of upcoming jobs. When metrics.listen is set,
Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	plans := a.cfg.Plans()
	if len(plans) == 0 {
		return errors.New("no horizon plans configured")
	}
	sched, err := a.cfg.Schedule()
	if err != nil {
		return err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var (
		matOpts []materialize.Option
		runOpts = []horizon.Option{
			horizon.WithLogger(a.log),
			horizon.RunOnStart(a.cfg.Horizon.RunOnStart),
			horizon.InLocation(loc),
		}
		srv *http.Server
	)

	if a.cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.NewCollector(a.cfg.Metrics.Namespace, reg)
		matOpts = append(matOpts, materialize.WithHooks(collector))
		runOpts = append(runOpts, horizon.OnResult(collector.ObserveHorizon))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv = &http.Server{
			Addr:              a.cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.log.Info("metrics listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	m, err := a.materializer(store, matOpts...)
	if err != nil {
		return err
	}

	runner := horizon.New(m, store, sched, plans, runOpts...)
	a.log.Info("horizon runner started", "plans", len(plans), "schedule", a.cfg.Horizon.Schedule)

	err = runner.Start(ctx)
	runner.Wait()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		a.log.Info("horizon runner stopped")
		return nil
	}
	return err
}
