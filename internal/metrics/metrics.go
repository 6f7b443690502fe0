// Package metrics provides Prometheus metrics for paper-digest.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedFetchTotal counts feed queries by outcome.
	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdigest",
			Name:      "feed_fetch_total",
			Help:      "Total number of feed queries",
		},
		[]string{"status"},
	)

	// NewPapersTotal counts papers not previously seen.
	NewPapersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperdigest",
			Name:      "new_papers_total",
			Help:      "Total number of papers emitted as new",
		},
	)

	// DedupFlushErrorsTotal counts failed writes of the dedup store.
	DedupFlushErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperdigest",
			Name:      "dedup_flush_errors_total",
			Help:      "Total number of failed dedup store flushes",
		},
	)

	// ExtractionTotal counts extraction results by content source.
	ExtractionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdigest",
			Name:      "extraction_total",
			Help:      "Total number of content extractions",
		},
		[]string{"source"},
	)

	// SummaryTotal counts summarizer calls by outcome.
	SummaryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdigest",
			Name:      "summary_total",
			Help:      "Total number of summaries",
		},
		[]string{"status"},
	)

	// PublishTotal counts notifications by publisher and outcome.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdigest",
			Name:      "publish_total",
			Help:      "Total number of publish operations",
		},
		[]string{"publisher", "status"},
	)
)

// RecordFeedFetch records a feed query outcome.
func RecordFeedFetch(status string) {
	FeedFetchTotal.WithLabelValues(status).Inc()
}

// RecordNewPapers adds n newly emitted papers.
func RecordNewPapers(n int) {
	NewPapersTotal.Add(float64(n))
}

// RecordExtraction records which source produced the content.
func RecordExtraction(source string) {
	ExtractionTotal.WithLabelValues(source).Inc()
}

// RecordSummary records a summary outcome.
func RecordSummary(status string) {
	SummaryTotal.WithLabelValues(status).Inc()
}

// RecordPublish records a publish outcome.
func RecordPublish(publisher, status string) {
	PublishTotal.WithLabelValues(publisher, status).Inc()
}
