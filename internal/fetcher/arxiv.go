package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const DefaultBaseURL = "https://export.arxiv.org/api/query"

// ArxivFetcher fetches papers from the arXiv API.
type ArxivFetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	parser    *gofeed.Parser
}

// NewArxivFetcher builds a fetcher against baseURL. A nil client gets a 30
// second timeout.
func NewArxivFetcher(client *http.Client, baseURL, userAgent string) *ArxivFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ArxivFetcher{
		client:    client,
		baseURL:   baseURL,
		userAgent: userAgent,
		parser:    gofeed.NewParser(),
	}
}

func (f *ArxivFetcher) Fetch(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	reqURL := fmt.Sprintf("%s?%s", f.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv: failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("arxiv: failed to read response: %w", err)
	}

	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("arxiv: failed to parse feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		papers = append(papers, paperFromItem(item))
	}

	return papers, nil
}

func paperFromItem(item *gofeed.Item) Paper {
	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a == nil {
			continue
		}
		authors = append(authors, strings.TrimSpace(a.Name))
	}

	link := item.Link
	if link == "" && len(item.Links) > 0 {
		link = item.Links[0]
	}

	var category string
	if len(item.Categories) > 0 {
		category = item.Categories[0]
	}

	id := strings.TrimSpace(item.GUID)
	if id == "" {
		id = link
	}

	return Paper{
		ID:        id,
		Title:     collapseSpace(item.Title),
		Abstract:  collapseSpace(item.Description),
		Link:      strings.TrimSpace(link),
		Published: strings.TrimSpace(item.Published),
		Authors:   authors,
		Category:  category,
	}
}
