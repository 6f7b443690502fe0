package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
	"github.com/ryosukesatoh/paper-digest/internal/metrics"
)

const (
	// ErrorPrefix starts every summary that reports a failure instead of a
	// digest.
	ErrorPrefix = "Error: "

	NotConfigured = ErrorPrefix + "No API Key configured."

	systemPrompt = "You are a helpful research assistant who summarizes academic papers."
)

var ErrEmptyCompletion = errors.New("empty completion")

const promptTemplate = `You are an expert research assistant. Summarize the following research paper for a technical audience.

Paper Title: %s

--- FULL PAPER CONTENT ---
%s
--- END OF PAPER ---

Please provide a structured summary with the following sections. Use distinct emojis and *single asterisks* for bold headers (Slack style).

:rocket: *Core Contribution*
(1-2 sentences on what this paper contributes)

:bulb: *Key Findings*
(Bullet points of the main results, properties, or benchmarks)

:dart: *Implications*
(Why this matters)

Keep it concise, high-quality, and visually clean for Slack.`

// Message is one role-tagged entry of a reasoning service request.
type Message struct {
	Role    string
	Content string
}

// Backend sends a conversation to a reasoning service and returns the single
// completion text.
type Backend interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Outcome is the result of one summarization attempt.
type Outcome struct {
	Text string
	Err  error
}

// Render turns an outcome into display text: the completion on success, an
// ErrorPrefix message otherwise.
func Render(o Outcome) string {
	if o.Err != nil {
		return fmt.Sprintf("%sfailed to generate summary: %v", ErrorPrefix, o.Err)
	}
	return o.Text
}

// IsError reports whether a rendered summary describes a failure.
func IsError(summary string) bool {
	return strings.HasPrefix(summary, ErrorPrefix)
}

// Summarizer produces display-ready digests. A Summarizer without a backend is
// disabled and answers every call with NotConfigured.
type Summarizer struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "summarizer")
	if backend == nil {
		logger.Warn("no API key configured, summarization disabled")
	}
	return &Summarizer{backend: backend, logger: logger}
}

// Enabled reports whether a backend is configured.
func (s *Summarizer) Enabled() bool {
	return s.backend != nil
}

// Summarize asks the backend for a digest of p. It never fails: errors are
// returned as text starting with ErrorPrefix.
func (s *Summarizer) Summarize(ctx context.Context, p fetcher.Paper, content string) string {
	if s.backend == nil {
		metrics.RecordSummary("disabled")
		return NotConfigured
	}

	s.logger.Info("summarizing paper", "paper", p.ID, "title", p.Title)
	text, err := s.backend.Complete(ctx, BuildMessages(p, content))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyCompletion
	}
	if err != nil {
		metrics.RecordSummary("error")
		s.logger.Error("summary failed", "paper", p.ID, "error", err)
	} else {
		metrics.RecordSummary("ok")
	}
	return Render(Outcome{Text: text, Err: err})
}

// BuildMessages renders the fixed instruction template for p with content
// embedded verbatim.
func BuildMessages(p fetcher.Paper, content string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(promptTemplate, p.Title, content)},
	}
}
