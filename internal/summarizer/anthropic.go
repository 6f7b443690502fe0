package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicBackend uses the Anthropic Messages API.
type AnthropicBackend struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

func NewAnthropicBackend(apiKey, model, endpoint string, maxTokens int, client *http.Client) *AnthropicBackend {
	if endpoint == "" {
		endpoint = anthropicAPIURL
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &AnthropicBackend{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		endpoint:  endpoint,
		client:    client,
	}
}

// Anthropic API request/response types

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (b *AnthropicBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := anthropicRequest{
		Model:     b.model,
		MaxTokens: b.maxTokens,
	}
	// System instructions are a top-level field, not a message role.
	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		reqBody.Messages = append(reqBody.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	reqBody.System = strings.Join(system, "\n\n")

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to read response: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("anthropic: failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("anthropic: API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic: unexpected status %d", resp.StatusCode)
	}

	var sb strings.Builder
	for _, c := range apiResp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyCompletion)
	}
	return sb.String(), nil
}
