package summarizer

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend calls the OpenAI chat completions API.
type OpenAIBackend struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIBackend builds a backend. An empty baseURL uses the public API.
func NewOpenAIBackend(apiKey, model, baseURL string, maxTokens int, httpClient *http.Client) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIBackend{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (b *OpenAIBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		Messages:  make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
