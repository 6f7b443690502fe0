package fetcher

import (
	"context"
	"strings"
)

// Paper is a single feed entry. It is created by a Fetcher and never modified
// afterwards.
type Paper struct {
	ID        string
	Title     string
	Abstract  string
	Link      string
	Published string
	Authors   []string
	Category  string
}

// Fetcher queries a paper feed. Implementations return entries in the feed's
// native order.
type Fetcher interface {
	Fetch(ctx context.Context, query string, maxResults int) ([]Paper, error)
}

// collapseSpace joins whitespace runs, including the line breaks arXiv wraps
// titles and abstracts with, into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
