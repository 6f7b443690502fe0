// Package ingest turns feed queries into batches of papers that have not been
// processed before.
package ingest

import (
	"context"
	"log/slog"

	"github.com/ryosukesatoh/paper-digest/internal/dedup"
	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
	"github.com/ryosukesatoh/paper-digest/internal/metrics"
)

// Ingestor filters feed results against a dedup store it owns.
type Ingestor struct {
	feed   fetcher.Fetcher
	store  dedup.Store
	key    dedup.KeyFunc
	logger *slog.Logger
}

// New builds an Ingestor. A nil key func keeps raw feed ids.
func New(feed fetcher.Fetcher, store dedup.Store, key dedup.KeyFunc, logger *slog.Logger) *Ingestor {
	if key == nil {
		key = dedup.ExactKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		feed:   feed,
		store:  store,
		key:    key,
		logger: logger.With("component", "ingest"),
	}
}

// Fetch queries the feed once and returns the papers whose key is not yet in
// the store, in feed order. Every returned key is added to the store, which is
// flushed once if anything new was found. Feed failures are logged and yield
// an empty result.
func (in *Ingestor) Fetch(ctx context.Context, query string, maxResults int) []fetcher.Paper {
	papers, err := in.feed.Fetch(ctx, query, maxResults)
	if err != nil {
		metrics.RecordFeedFetch("error")
		in.logger.Error("feed query failed", "query", query, "error", err)
		return nil
	}
	metrics.RecordFeedFetch("ok")

	var fresh []fetcher.Paper
	for _, p := range papers {
		k := in.key(p.ID)
		if in.store.Contains(k) {
			continue
		}
		in.store.Add(k)
		fresh = append(fresh, p)
	}

	in.logger.Info("feed query done", "query", query, "entries", len(papers), "new", len(fresh))
	if len(fresh) == 0 {
		return fresh
	}
	metrics.RecordNewPapers(len(fresh))

	// An unwritable store degrades to in-memory dedup for the rest of the run.
	if err := in.store.Flush(); err != nil {
		metrics.DedupFlushErrorsTotal.Inc()
		in.logger.Warn("failed to persist dedup store", "error", err)
	}

	return fresh
}
