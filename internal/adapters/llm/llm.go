// Package llm adapts hosted language models to the categorizer's Classifier.
//
// Two providers are supported, selected by name:
//   - "anthropic" (default) via anthropic-sdk-go
//   - "openai" via go-openai
//
// Provider errors are mapped onto the categorizer's sentinel errors so the
// categorizer can decide whether to skip a chunk or stop the run.
package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultMaxTokens bounds each response; a numbered list of 30 categories fits easily.
const DefaultMaxTokens = 1024

// Config holds classifier configuration
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	MaxTokens  int
	BaseURL    string // optional, for proxies and tests
	MaxRetries int    // SDK-level retries; 0 keeps the SDK default, negative disables
}

// New creates the classifier for cfg.Provider.
func New(cfg Config) (categorizer.Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key is required: %w", providerName(cfg.Provider), categorizer.ErrUnauthorized)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch providerName(cfg.Provider) {
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

func providerName(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return ProviderAnthropic
	}
	return p
}

// classifyError maps a provider failure onto the categorizer's error kinds.
func classifyError(provider string, status int, message string, err error) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "credit balance") || strings.Contains(lower, "quota"):
		return fmt.Errorf("%s: %w: %v", provider, categorizer.ErrQuotaExhausted, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w: %v", provider, categorizer.ErrUnauthorized, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %v", provider, categorizer.ErrRateLimited, err)
	default:
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
}
