package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
)

// StdoutPublisher prints each paper summary to stdout.
type StdoutPublisher struct {
	out io.Writer
}

func NewStdoutPublisher() *StdoutPublisher {
	return &StdoutPublisher{out: os.Stdout}
}

func (p *StdoutPublisher) Name() string { return "stdout" }

func (p *StdoutPublisher) Publish(_ context.Context, paper fetcher.Paper, summary string) error {
	w := p.out
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, paper.Title)
	if len(paper.Authors) > 0 {
		fmt.Fprintf(w, "Authors: %s\n", strings.Join(paper.Authors, ", "))
	}
	if paper.Published != "" {
		fmt.Fprintf(w, "Published: %s\n", paper.Published)
	}
	fmt.Fprintf(w, "URL: %s\n", paper.Link)
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintln(w, summary)
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	return nil
}
