// Package llm provides the single-prompt text completion used to classify
// user messages. Providers are interchangeable behind Completer.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no API key was supplied for the provider.
var ErrNotConfigured = errors.New("language model is not configured")

// Completer sends one instructional prompt and returns the model's text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider/model pair in logs.
	Name() string
}

// Config selects and configures a provider.
type Config struct {
	Provider string // "gemini" or "openai"
	APIKey   string
	Model    string
	// BaseURL is only used by OpenAI-compatible endpoints.
	BaseURL string
}

// New builds the Completer for cfg.Provider. A missing API key yields an
// unconfigured completer whose calls fail with ErrNotConfigured.
func New(ctx context.Context, cfg Config) (Completer, error) {
	switch cfg.Provider {
	case "", "gemini", "openai":
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if cfg.APIKey == "" {
		return unconfigured{provider: cfg.Provider}, nil
	}
	if cfg.Provider == "openai" {
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	}
	return NewGemini(ctx, cfg.APIKey, cfg.Model)
}

// IsConfigured reports whether c can make real calls.
func IsConfigured(c Completer) bool {
	if c == nil {
		return false
	}
	_, ok := c.(unconfigured)
	return !ok
}

type unconfigured struct {
	provider string
}

func (u unconfigured) Complete(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (u unconfigured) Name() string {
	return u.provider + " (unconfigured)"
}
