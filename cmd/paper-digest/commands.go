package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline on the configured schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	log := a.logger

	var metricsSrv *http.Server
	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}
		go func() {
			log.Info("metrics server listening", "addr", a.cfg.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	if a.cfg.RunOnStart {
		log.Info("running initial digest")
		if err := a.runner.Run(ctx); err != nil {
			log.Warn("initial run interrupted", "error", err)
		}
	}

	// SkipIfStillRunning keeps passes sequential when one overruns the schedule.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(a.cfg.Schedule, func() {
		log.Info("cron triggered, running digest")
		if err := a.runner.Run(ctx); err != nil {
			log.Warn("scheduled run interrupted", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to set up cron schedule %q: %w", a.cfg.Schedule, err)
	}
	c.Start()
	log.Info("scheduled digest", "schedule", a.cfg.Schedule)

	<-ctx.Done()
	log.Info("shutting down")

	<-c.Stop().Done()

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown", "error", err)
		}
	}

	log.Info("shutdown complete")
	return nil
}

func newOnceCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Process new papers once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.runner.Run(ctx)
		},
	}
}

func newSummarizeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <url>",
		Short: "Summarize a single paper link and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			p, summary := a.runner.SummarizeLink(cmd.Context(), args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "*%s*\n%s\n\n%s\n", p.Title, p.Link, summary)
			return nil
		},
	}
}
