package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryosukesatoh/paper-digest/internal/config"
	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
)

func samplePaper() fetcher.Paper {
	return fetcher.Paper{
		ID:        "http://arxiv.org/abs/1234.5678v1",
		Title:     "Test Paper One",
		Abstract:  "Abstract.",
		Link:      "http://arxiv.org/abs/1234.5678v1",
		Published: "2025-01-15T08:00:00Z",
		Authors:   []string{"Alice", "Bob"},
		Category:  "cs.AI",
	}
}

const sampleSummary = ":rocket: *Core Contribution*\nA summary of paper one."

func TestStdoutPublish(t *testing.T) {
	var buf bytes.Buffer
	pub := &StdoutPublisher{out: &buf}

	require.NoError(t, pub.Publish(context.Background(), samplePaper(), sampleSummary))

	output := buf.String()
	for _, want := range []string{
		"Test Paper One",
		"Alice, Bob",
		"http://arxiv.org/abs/1234.5678v1",
		"2025-01-15T08:00:00Z",
		"A summary of paper one.",
	} {
		assert.Contains(t, output, want)
	}
}

func TestSlackPublish(t *testing.T) {
	var received slackPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	pub := &SlackPublisher{webhookURL: ts.URL, client: ts.Client()}
	require.NoError(t, pub.Publish(context.Background(), samplePaper(), sampleSummary))

	assert.Equal(t,
		"*Test Paper One*\n\n"+sampleSummary+"\n\n<http://arxiv.org/abs/1234.5678v1|View Original Paper>",
		received.Text)
	assert.False(t, received.UnfurlLinks)
}

func TestSlackPublishError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("invalid_token"))
	}))
	defer ts.Close()

	pub := &SlackPublisher{webhookURL: ts.URL, client: ts.Client()}
	err := pub.Publish(context.Background(), samplePaper(), sampleSummary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403: invalid_token")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		check func(string) bool
		desc  string
	}{
		{
			name:  "short string unchanged",
			input: "hello",
			max:   10,
			check: func(s string) bool { return s == "hello" },
			desc:  "expected 'hello'",
		},
		{
			name:  "exact length unchanged",
			input: "hello",
			max:   5,
			check: func(s string) bool { return s == "hello" },
			desc:  "expected 'hello'",
		},
		{
			name:  "long string truncated with ellipsis",
			input: "This is a very long string that should be truncated.",
			max:   20,
			check: func(s string) bool { return len([]rune(s)) == 20 && strings.HasSuffix(s, "…") },
			desc:  "expected truncated string ending with ellipsis",
		},
		{
			name:  "truncation prefers sentence boundary",
			input: "A long enough first sentence. The rest is extra padding text here.",
			max:   40,
			check: func(s string) bool { return s == "A long enough first sentence." },
			desc:  "expected truncation at sentence boundary",
		},
		{
			name:  "multibyte input stays valid",
			input: strings.Repeat("論文", 10),
			max:   5,
			check: func(s string) bool { return s == "論文論文…" },
			desc:  "expected rune-aware truncation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.max)
			assert.True(t, tt.check(result), "%s, got %q", tt.desc, result)
		})
	}
}

func TestBuildEmbed(t *testing.T) {
	e := buildEmbed(samplePaper(), sampleSummary)

	assert.Equal(t, "Test Paper One", e.Title)
	assert.Equal(t, "http://arxiv.org/abs/1234.5678v1", e.URL)
	assert.Equal(t, sampleSummary, e.Description)
	require.NotNil(t, e.Footer)
	assert.Equal(t, "Alice, Bob | cs.AI", e.Footer.Text)
	assert.Equal(t, "2025-01-15T08:00:00Z", e.Timestamp)
}

func TestBuildEmbedLongSummary(t *testing.T) {
	e := buildEmbed(fetcher.Paper{Title: "T"}, strings.Repeat("x", 5000))

	assert.LessOrEqual(t, len([]rune(e.Description)), 4096)
	assert.Nil(t, e.Footer)
	assert.Empty(t, e.Timestamp)
}

func TestDiscordPublishWithMockWebhook(t *testing.T) {
	var receivedPayloads []discordWebhookPayload

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var payload discordWebhookPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		receivedPayloads = append(receivedPayloads, payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	pub := &DiscordPublisher{
		webhookURL: ts.URL,
		client:     ts.Client(),
	}

	require.NoError(t, pub.Publish(context.Background(), samplePaper(), sampleSummary))
	require.Len(t, receivedPayloads, 1)
	require.Len(t, receivedPayloads[0].Embeds, 1)
	assert.Equal(t, "Test Paper One", receivedPayloads[0].Embeds[0].Title)
}

func TestDiscordPublishWebhookError(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	pub := &DiscordPublisher{
		webhookURL: ts.URL,
		client:     ts.Client(),
	}

	err := pub.Publish(context.Background(), samplePaper(), sampleSummary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
	assert.Equal(t, 1, calls, "a single attempt per call")
}

func TestNew(t *testing.T) {
	p, err := New(config.PublisherConfig{Type: "stdout"})
	require.NoError(t, err)
	assert.Equal(t, "stdout", p.Name())

	p, err = New(config.PublisherConfig{Type: "slack", Slack: config.WebhookConfig{WebhookURL: "https://example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "slack", p.Name())

	p, err = New(config.PublisherConfig{Type: "discord", Discord: config.WebhookConfig{WebhookURL: "https://example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "discord", p.Name())

	_, err = New(config.PublisherConfig{Type: "email"})
	assert.ErrorIs(t, err, ErrUnsupportedPublisherType)
}
