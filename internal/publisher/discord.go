package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
)

type discordEmbedFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	URL         string              `json:"url,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordPublisher publishes paper summaries to a Discord channel via webhook.
type DiscordPublisher struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordPublisher creates a new DiscordPublisher.
func NewDiscordPublisher(webhookURL string) *DiscordPublisher {
	return &DiscordPublisher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *DiscordPublisher) Name() string { return "discord" }

// Publish sends one embed for the paper.
func (d *DiscordPublisher) Publish(ctx context.Context, paper fetcher.Paper, summary string) error {
	payload := discordWebhookPayload{Embeds: []discordEmbed{buildEmbed(paper, summary)}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// buildEmbed respects Discord's limits: 256 characters for titles, 4096 for
// descriptions, 2048 for footers.
func buildEmbed(paper fetcher.Paper, summary string) discordEmbed {
	e := discordEmbed{
		Title:       truncate(paper.Title, 256),
		URL:         paper.Link,
		Description: truncate(summary, 4096),
		Color:       0x5865F2, // Discord blurple
	}

	var footerParts []string
	if len(paper.Authors) > 0 {
		footerParts = append(footerParts, strings.Join(paper.Authors, ", "))
	}
	if paper.Category != "" {
		footerParts = append(footerParts, paper.Category)
	}
	if len(footerParts) > 0 {
		e.Footer = &discordEmbedFooter{Text: truncate(strings.Join(footerParts, " | "), 2048)}
	}

	if published, err := time.Parse(time.RFC3339, paper.Published); err == nil {
		e.Timestamp = published.Format(time.RFC3339)
	}
	return e
}

// truncate shortens s to max characters, preferring a sentence boundary.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	cut := string(runes[:max-1])
	// Try to cut at a sentence boundary.
	if idx := strings.LastIndexAny(cut, ".!?"); idx > len(cut)/2 {
		return cut[:idx+1]
	}
	return cut + "…"
}
