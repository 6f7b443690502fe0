package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/ryosukesatoh/paper-digest/internal/config"
	"github.com/ryosukesatoh/paper-digest/internal/fetcher"
)

// Publisher delivers one paper and its summary to some output destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, paper fetcher.Paper, summary string) error
}

// New creates the publisher selected by the configuration.
func New(cfg config.PublisherConfig) (Publisher, error) {
	switch cfg.Type {
	case "stdout":
		return NewStdoutPublisher(), nil
	case "slack":
		return NewSlackPublisher(cfg.Slack.WebhookURL), nil
	case "discord":
		return NewDiscordPublisher(cfg.Discord.WebhookURL), nil
	default:
		return nil, fmt.Errorf("publisher: %w: %q", ErrUnsupportedPublisherType, cfg.Type)
	}
}

// ErrUnsupportedPublisherType is returned when an unsupported publisher type is specified
var ErrUnsupportedPublisherType = errors.New("unsupported publisher type")
