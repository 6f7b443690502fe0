package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ryosukesatoh/paper-digest/internal/config"
)

// NewBackend builds the backend selected by cfg.Type. It returns a nil
// Backend, and no error, when no API key is configured.
func NewBackend(ctx context.Context, cfg config.SummarizerConfig) (Backend, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Type {
	case "openai":
		return NewOpenAIBackend(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens, client), nil
	case "anthropic":
		return NewAnthropicBackend(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens, client), nil
	case "gemini":
		b, err := NewGeminiBackend(ctx, cfg.APIKey, cfg.Model, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("summarizer: %w: %q", ErrUnsupportedSummarizerType, cfg.Type)
	}
}

// ErrUnsupportedSummarizerType is returned when an unsupported summarizer type is specified
var ErrUnsupportedSummarizerType = errors.New("unsupported summarizer type")
