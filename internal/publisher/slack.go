package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
)

type slackPayload struct {
	Text        string `json:"text"`
	UnfurlLinks bool   `json:"unfurl_links"`
}

// SlackPublisher posts to a Slack incoming webhook.
type SlackPublisher struct {
	webhookURL string
	client     *http.Client
}

func NewSlackPublisher(webhookURL string) *SlackPublisher {
	return &SlackPublisher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SlackPublisher) Name() string { return "slack" }

// Publish sends the title in bold, the summary, and a link back to the paper.
func (s *SlackPublisher) Publish(ctx context.Context, paper fetcher.Paper, summary string) error {
	body, err := json.Marshal(slackPayload{
		Text:        formatSlackMessage(paper, summary),
		UnfurlLinks: false,
	})
	if err != nil {
		return fmt.Errorf("slack: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func formatSlackMessage(paper fetcher.Paper, summary string) string {
	return fmt.Sprintf("*%s*\n\n%s\n\n<%s|View Original Paper>", paper.Title, summary, paper.Link)
}
