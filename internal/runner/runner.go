package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ryosukesatoh/paper-digest/internal/extractor"
	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
	"github.com/ryosukesatoh/paper-digest/internal/metrics"
	"github.com/ryosukesatoh/paper-digest/internal/publisher"
	"github.com/ryosukesatoh/paper-digest/internal/summarizer"
)

// Ingestor yields the papers that have not been processed yet.
type Ingestor interface {
	Fetch(ctx context.Context, query string, maxResults int) []fetcher.Paper
}

type Extractor interface {
	Extract(ctx context.Context, p fetcher.Paper, maxChars int) extractor.Result
}

type Summarizer interface {
	Summarize(ctx context.Context, p fetcher.Paper, content string) string
}

// Item states, logged as each paper moves through the pipeline.
const (
	StateNew          = "NEW"
	StateExtracting   = "EXTRACTING"
	StateExtracted    = "EXTRACTED"
	StateFallback     = "FALLBACK"
	StateSummarizing  = "SUMMARIZING"
	StateSummarized   = "SUMMARIZED"
	StateSummaryError = "SUMMARY_ERROR"
)

const onDemandTitle = "On-Demand Request"

type Options struct {
	Query      string
	MaxResults int
	MaxChars   int
	// NotifyInterval is the minimum gap between two publications. Zero
	// disables pacing.
	NotifyInterval time.Duration
	Logger         *slog.Logger
}

// Runner orchestrates the ingest -> extract -> summarize -> publish pipeline.
type Runner struct {
	ingestor   Ingestor
	extractor  Extractor
	summarizer Summarizer
	publishers []publisher.Publisher
	query      string
	maxResults int
	maxChars   int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func New(in Ingestor, ex Extractor, s Summarizer, pubs []publisher.Publisher, opts Options) *Runner {
	limit := rate.Inf
	if opts.NotifyInterval > 0 {
		limit = rate.Every(opts.NotifyInterval)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		ingestor:   in,
		extractor:  ex,
		summarizer: s,
		publishers: pubs,
		query:      opts.Query,
		maxResults: opts.MaxResults,
		maxChars:   opts.MaxChars,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger.With("component", "runner"),
	}
}

// Run executes the full pipeline once. Papers are handled one at a time in
// feed order. The only error returned is the context's.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting pipeline", "query", r.query, "max_results", r.maxResults)

	papers := r.ingestor.Fetch(ctx, r.query, r.maxResults)
	if len(papers) == 0 {
		r.logger.Info("no new papers")
		return ctx.Err()
	}
	r.logger.Info("found new papers", "count", len(papers))

	for i, p := range papers {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("pipeline interrupted", "remaining", len(papers)-i)
			return err
		}
		summary := r.process(ctx, p)
		if err := r.publish(ctx, p, summary); err != nil {
			return err
		}
	}

	r.logger.Info("pipeline completed", "papers", len(papers))
	return nil
}

// SummarizeLink produces a digest for an arbitrary paper link outside the
// feed. The returned paper carries placeholder metadata.
func (r *Runner) SummarizeLink(ctx context.Context, link string) (fetcher.Paper, string) {
	p := fetcher.Paper{
		ID:       link,
		Title:    onDemandTitle,
		Abstract: fmt.Sprintf("Paper located at %s", link),
		Link:     link,
	}
	return p, r.process(ctx, p)
}

func (r *Runner) process(ctx context.Context, p fetcher.Paper) string {
	log := r.logger.With("paper", p.ID)
	log.Debug("state", "state", StateNew, "title", p.Title)

	log.Debug("state", "state", StateExtracting)
	res := r.extractor.Extract(ctx, p, r.maxChars)
	if res.Fallback() {
		log.Info("state", "state", StateFallback, "reason", res.Reason)
	} else {
		log.Info("state", "state", StateExtracted, "chars", len([]rune(res.Content)))
	}

	log.Debug("state", "state", StateSummarizing)
	summary := r.summarizer.Summarize(ctx, p, res.Content)
	if summarizer.IsError(summary) {
		log.Warn("state", "state", StateSummaryError, "summary", summary)
	} else {
		log.Info("state", "state", StateSummarized)
	}
	return summary
}

// publish delivers to every publisher. A failing publisher is logged and
// skipped; only cancellation stops the batch.
func (r *Runner) publish(ctx context.Context, p fetcher.Paper, summary string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("rate limiter", "error", err)
	}

	for _, pub := range r.publishers {
		if err := pub.Publish(ctx, p, summary); err != nil {
			metrics.RecordPublish(pub.Name(), "error")
			r.logger.Warn("publish failed", "publisher", pub.Name(), "paper", p.ID, "error", err)
			continue
		}
		metrics.RecordPublish(pub.Name(), "ok")
		r.logger.Info("published", "publisher", pub.Name(), "paper", p.ID)
	}
	return nil
}
