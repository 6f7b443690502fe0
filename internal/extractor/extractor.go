// Package extractor turns a paper's reference link into bounded plain text.
// Extraction always produces something: when the document cannot be fetched
// or read, the paper's title and abstract stand in for it.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
	"github.com/ryosukesatoh/paper-digest/internal/metrics"
)

const (
	DefaultMaxPages = 20
	DefaultMaxBytes = 50 << 20

	TruncationMarker = "\n\n[Content truncated due to length...]"
)

var (
	ErrInvalidLink = errors.New("invalid paper link")
	ErrEmptyText   = errors.New("document contains no text")
)

// Source tells where extracted content came from.
type Source string

const (
	SourceDocument Source = "document"
	SourceFallback Source = "fallback"
)

// Result is the outcome of one extraction. Content is never empty. Reason
// holds the failure that caused a fallback.
type Result struct {
	Content string
	Source  Source
	Reason  error
}

// Fallback reports whether the content is the title and abstract stand-in.
func (r Result) Fallback() bool {
	return r.Source == SourceFallback
}

type Options struct {
	Client    *http.Client
	UserAgent string
	MaxPages  int
	MaxBytes  int64
	Logger    *slog.Logger
}

// Extractor downloads and converts paper documents.
type Extractor struct {
	client    *http.Client
	userAgent string
	maxPages  int
	maxBytes  int64
	logger    *slog.Logger
}

func New(opts Options) *Extractor {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		maxPages:  opts.MaxPages,
		maxBytes:  opts.MaxBytes,
		logger:    opts.Logger.With("component", "extractor"),
	}
}

// Extract returns the paper's document text, cleaned and capped at maxChars
// characters plus TruncationMarker. A non-positive maxChars disables the cap.
// Any failure is replaced by the title and abstract of p.
func (e *Extractor) Extract(ctx context.Context, p fetcher.Paper, maxChars int) Result {
	text, err := e.documentText(ctx, p.Link, maxChars)
	res := Select(p, text, err)

	if res.Fallback() {
		e.logger.Warn("falling back to abstract", "paper", p.ID, "error", res.Reason)
	} else {
		e.logger.Info("extracted document text", "paper", p.ID, "chars", len([]rune(res.Content)))
	}
	metrics.RecordExtraction(string(res.Source))
	return res
}

// Select picks the document text when it was obtained without error and is
// not blank, and the title and abstract stand-in otherwise.
func Select(p fetcher.Paper, text string, err error) Result {
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyText
	}
	if err != nil {
		return Result{Content: FallbackText(p), Source: SourceFallback, Reason: err}
	}
	return Result{Content: text, Source: SourceDocument}
}

// FallbackText synthesizes content from the feed metadata alone.
func FallbackText(p fetcher.Paper) string {
	title := p.Title
	if strings.TrimSpace(title) == "" {
		title = "Unknown"
	}
	abstract := p.Abstract
	if strings.TrimSpace(abstract) == "" {
		abstract = "No abstract available"
	}
	return fmt.Sprintf("Title: %s\n\nAbstract: %s", title, abstract)
}

// DocumentURL derives the PDF location from an abstract page link, e.g.
// https://arxiv.org/abs/2312.12345 -> https://arxiv.org/pdf/2312.12345.pdf.
func DocumentURL(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidLink, link)
	}

	u.Path = strings.Replace(u.Path, "/abs/", "/pdf/", 1)
	u.RawPath = ""
	if !strings.HasSuffix(u.Path, ".pdf") {
		u.Path += ".pdf"
	}
	return u.String(), nil
}

func (e *Extractor) documentText(ctx context.Context, link string, maxChars int) (string, error) {
	docURL, err := DocumentURL(link)
	if err != nil {
		return "", err
	}

	e.logger.Debug("downloading document", "url", docURL)
	data, err := e.download(ctx, docURL)
	if err != nil {
		return "", err
	}

	raw, err := decode(data, e.maxPages)
	if err != nil {
		return "", err
	}

	text := Normalize(raw)
	if text == "" {
		return "", ErrEmptyText
	}
	return Truncate(text, maxChars), nil
}

func (e *Extractor) download(ctx context.Context, docURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, fmt.Errorf("extractor: failed to create request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("extractor: failed to read document: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("extractor: document exceeds %d bytes", e.maxBytes)
	}
	return data, nil
}
