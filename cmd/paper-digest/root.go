package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ryosukesatoh/paper-digest/internal/config"
	"github.com/ryosukesatoh/paper-digest/internal/dedup"
	"github.com/ryosukesatoh/paper-digest/internal/extractor"
	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
	"github.com/ryosukesatoh/paper-digest/internal/ingest"
	"github.com/ryosukesatoh/paper-digest/internal/logging"
	"github.com/ryosukesatoh/paper-digest/internal/publisher"
	"github.com/ryosukesatoh/paper-digest/internal/runner"
	"github.com/ryosukesatoh/paper-digest/internal/summarizer"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "paper-digest",
		Short: "Monitor arXiv for new papers and post LLM summaries",
		Long: `paper-digest watches an arXiv query, skips papers it has already seen,
extracts the full text of each new paper and posts a structured summary.

Example usage:
  paper-digest run                  # Poll on the configured schedule
  paper-digest once                 # Process new papers once and exit
  paper-digest summarize <url>      # Summarize a single paper link`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(
		newRunCmd(&configPath),
		newOnceCmd(&configPath),
		newSummarizeCmd(&configPath),
	)
	return root
}

// app holds the wired pipeline for one process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *runner.Runner
	closer io.Closer
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func loadApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg)
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.New(cfg.LogLevel)

	store := dedup.OpenFileStore(cfg.Dedup.Path, logger)
	feed := fetcher.NewArxivFetcher(
		&http.Client{Timeout: cfg.Fetcher.Timeout},
		cfg.Fetcher.BaseURL,
		cfg.Fetcher.UserAgent,
	)
	in := ingest.New(feed, store, dedup.KeyFuncFor(cfg.Dedup.KeyPolicy), logger)

	ex := extractor.New(extractor.Options{
		Client:    &http.Client{Timeout: cfg.Extractor.Timeout},
		UserAgent: cfg.Fetcher.UserAgent,
		MaxPages:  cfg.Extractor.MaxPages,
		MaxBytes:  cfg.Extractor.MaxBytes,
		Logger:    logger,
	})

	backend, err := summarizer.NewBackend(ctx, cfg.Summarizer)
	if err != nil {
		return nil, fmt.Errorf("failed to build summarizer: %w", err)
	}
	sum := summarizer.New(backend, logger)

	pub, err := publisher.New(cfg.Publisher)
	if err != nil {
		return nil, err
	}

	r := runner.New(in, ex, sum, []publisher.Publisher{pub}, runner.Options{
		Query:          cfg.Query,
		MaxResults:     cfg.MaxResults,
		MaxChars:       cfg.Extractor.MaxChars,
		NotifyInterval: cfg.NotifyInterval,
		Logger:         logger,
	})

	a := &app{cfg: cfg, logger: logger, runner: r}
	// The gemini client holds a connection that must be released.
	if c, ok := backend.(io.Closer); ok {
		a.closer = c
	}
	return a, nil
}
