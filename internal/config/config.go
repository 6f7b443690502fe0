package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Query          string           `yaml:"query"`
	MaxResults     int              `yaml:"max_results"`
	Schedule       string           `yaml:"schedule"`
	RunOnStart     bool             `yaml:"run_on_start"`
	NotifyInterval time.Duration    `yaml:"notify_interval"`
	LogLevel       string           `yaml:"log_level"`
	Dedup          DedupConfig      `yaml:"dedup"`
	Fetcher        FetcherConfig    `yaml:"fetcher"`
	Extractor      ExtractorConfig  `yaml:"extractor"`
	Summarizer     SummarizerConfig `yaml:"summarizer"`
	Publisher      PublisherConfig  `yaml:"publisher"`
	Metrics        MetricsConfig    `yaml:"metrics"`
}

type DedupConfig struct {
	Path string `yaml:"path"`
	// KeyPolicy is "exact" or "ignore_version".
	KeyPolicy string `yaml:"key_policy"`
}

type FetcherConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ExtractorConfig struct {
	MaxChars int           `yaml:"max_chars"`
	MaxPages int           `yaml:"max_pages"`
	MaxBytes int64         `yaml:"max_bytes"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SummarizerConfig struct {
	Type      string        `yaml:"type"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

type PublisherConfig struct {
	Type    string        `yaml:"type"`
	Slack   WebhookConfig `yaml:"slack"`
	Discord WebhookConfig `yaml:"discord"`
}

type WebhookConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

const DefaultUserAgent = "ResearchSummarizerBot/1.0 (mailto:study@example.com)"

// apiKeyEnv maps summarizer types to the environment variable consulted when
// api_key is left empty.
var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GOOGLE_API_KEY",
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-sonnet-4-20250514",
	"gemini":    "gemini-1.5-flash",
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.Query == "" {
		cfg.Query = "cat:cs.AI OR cat:cs.LG OR cat:cs.CL"
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 5
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 60m"
	}
	if cfg.NotifyInterval == 0 {
		cfg.NotifyInterval = 2 * time.Second
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Dedup.Path == "" {
		cfg.Dedup.Path = "seen_papers.json"
	}
	if cfg.Dedup.KeyPolicy == "" {
		cfg.Dedup.KeyPolicy = "exact"
	}
	if cfg.Fetcher.BaseURL == "" {
		cfg.Fetcher.BaseURL = "https://export.arxiv.org/api/query"
	}
	if cfg.Fetcher.UserAgent == "" {
		cfg.Fetcher.UserAgent = DefaultUserAgent
	}
	if cfg.Fetcher.Timeout == 0 {
		cfg.Fetcher.Timeout = 30 * time.Second
	}
	if cfg.Extractor.MaxChars == 0 {
		cfg.Extractor.MaxChars = 50000
	}
	if cfg.Extractor.MaxPages == 0 {
		cfg.Extractor.MaxPages = 20
	}
	if cfg.Extractor.MaxBytes == 0 {
		cfg.Extractor.MaxBytes = 50 << 20
	}
	if cfg.Extractor.Timeout == 0 {
		cfg.Extractor.Timeout = 30 * time.Second
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "openai"
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = defaultModels[cfg.Summarizer.Type]
	}
	// A placeholder left unexpanded means the variable was never set.
	if envVarRegex.MatchString(cfg.Summarizer.APIKey) {
		cfg.Summarizer.APIKey = ""
	}
	if cfg.Summarizer.APIKey == "" {
		cfg.Summarizer.APIKey = os.Getenv(apiKeyEnv[cfg.Summarizer.Type])
	}
	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = 4096
	}
	if cfg.Summarizer.Timeout == 0 {
		cfg.Summarizer.Timeout = 120 * time.Second
	}
	if cfg.Publisher.Type == "" {
		cfg.Publisher.Type = "stdout"
	}
}

func validate(cfg *Config) error {
	if cfg.MaxResults < 0 {
		return fmt.Errorf("config: max_results must not be negative")
	}
	switch cfg.Dedup.KeyPolicy {
	case "exact", "ignore_version":
	default:
		return fmt.Errorf("config: unsupported dedup.key_policy %q (supported: exact, ignore_version)", cfg.Dedup.KeyPolicy)
	}
	if _, ok := defaultModels[cfg.Summarizer.Type]; !ok {
		return fmt.Errorf("config: unsupported summarizer type %q (supported: openai, anthropic, gemini)", cfg.Summarizer.Type)
	}
	switch cfg.Publisher.Type {
	case "stdout":
	case "slack":
		if cfg.Publisher.Slack.WebhookURL == "" {
			return fmt.Errorf("config: publisher.slack.webhook_url is required for slack publisher")
		}
	case "discord":
		if cfg.Publisher.Discord.WebhookURL == "" {
			return fmt.Errorf("config: publisher.discord.webhook_url is required for discord publisher")
		}
	default:
		return fmt.Errorf("config: unsupported publisher type %q (supported: stdout, slack, discord)", cfg.Publisher.Type)
	}
	return nil
}

// loadDotEnv reads a .env file next to the config file, if any. Variables
// already present in the environment win.
func loadDotEnv(path string) error {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: failed to load %s: %w", envPath, err)
	}
	return nil
}

// Load reads the config file, expands environment variables, applies defaults,
// and validates the configuration.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
