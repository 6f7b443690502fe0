package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend calls Google's Gemini models.
type GeminiBackend struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func NewGeminiBackend(ctx context.Context, apiKey, model string, maxTokens int, opts ...option.ClientOption) (*GeminiBackend, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return &GeminiBackend{client: client, model: model, maxTokens: maxTokens}, nil
}

func (b *GeminiBackend) Close() error {
	return b.client.Close()
}

func (b *GeminiBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	model := b.client.GenerativeModel(b.model)
	if b.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(b.maxTokens))
	}

	system, prompt := splitSystem(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyCompletion)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// splitSystem separates system instructions from the conversation text, which
// Gemini receives as a single prompt.
func splitSystem(messages []Message) (system, prompt string) {
	var sys, rest []string
	for _, m := range messages {
		if m.Role == "system" {
			sys = append(sys, m.Content)
		} else {
			rest = append(rest, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(rest, "\n\n")
}
