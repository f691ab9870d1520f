// Package textgen is the gateway to the external text-generation API.
//
// A Generator turns one prompt into one block of text. Three
// implementations exist:
//   - OpenAI: chat completions via github.com/openai/openai-go
//   - Gemini: GenerateContent via google.golang.org/genai
//   - Placeholder: deterministic canned text, used when no API key is set
//
// PLACEHOLDER MODE IS OBSERVABLE:
// Every Result carries a Placeholder flag. Callers surface it in their
// responses so a client can tell a stub from a real generation.
//
// FAILURE:
// A configured provider that fails returns an error. We never fall back to
// the placeholder on error: that would silently hide an outage. There are no
// retries; the request context is the only deadline.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultMaxTokens   = 2000
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("textgen: provider returned no text")

// Result is the output of one generation.
type Result struct {
	Text        string
	Placeholder bool
}

// Generator sends a prompt to a text-generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
	// Name identifies the backend and model for logs, e.g. "openai:gpt-3.5-turbo".
	Name() string
}

// Config selects and configures the backend.
type Config struct {
	Provider  string // "openai" (default) or "gemini"
	APIKey    string // empty selects the placeholder generator
	Model     string
	BaseURL   string // optional, for compatible gateways and tests
	MaxTokens int
}

// New builds the Generator described by cfg.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Generator, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("no AI API key configured, responses will be placeholders")
		return Placeholder{}, nil
	}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg, logger), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("textgen: unknown provider %q", cfg.Provider)
	}
}
