package llm

import (
	"fmt"
	"os"
	"time"
)

// Config names the LLM backend and carries its per-provider settings.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini",
	// "openrouter" or "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout caps one LLM request end to end, retries included.
	// Default: 30s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenAI-compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig bounds how transient provider failures are retried.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: defaultOpenRouterModel,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from KOTOBA_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	env := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	env(&cfg.Provider, "KOTOBA_LLM_PROVIDER")
	env(&cfg.Anthropic.APIKey, "KOTOBA_ANTHROPIC_API_KEY")
	env(&cfg.Anthropic.Model, "KOTOBA_ANTHROPIC_MODEL")
	env(&cfg.OpenAI.APIKey, "KOTOBA_OPENAI_API_KEY")
	env(&cfg.OpenAI.Model, "KOTOBA_OPENAI_MODEL")
	env(&cfg.OpenAI.BaseURL, "KOTOBA_OPENAI_BASE_URL")
	env(&cfg.Gemini.APIKey, "KOTOBA_GEMINI_API_KEY")
	env(&cfg.Gemini.Model, "KOTOBA_GEMINI_MODEL")
	env(&cfg.OpenRouter.APIKey, "KOTOBA_OPENROUTER_API_KEY")
	env(&cfg.OpenRouter.Model, "KOTOBA_OPENROUTER_MODEL")
	env(&cfg.OpenRouter.BaseURL, "KOTOBA_OPENROUTER_BASE_URL")

	return cfg
}

// DiscoverConfig looks for the well-known API key env vars
// (GEMINI_API_KEY first, then OpenAI, Anthropic, OpenRouter) and builds
// a Config for the first one set. The boolean is false when no key is
// present.
func DiscoverConfig() (Config, bool) {
	probes := []struct {
		env      string
		provider string
		set      func(*Config, string)
	}{
		{"GEMINI_API_KEY", "gemini", func(c *Config, k string) { c.Gemini.APIKey = k }},
		{"OPENAI_API_KEY", "openai", func(c *Config, k string) { c.OpenAI.APIKey = k }},
		{"ANTHROPIC_API_KEY", "anthropic", func(c *Config, k string) { c.Anthropic.APIKey = k }},
		{"OPENROUTER_API_KEY", "openrouter", func(c *Config, k string) { c.OpenRouter.APIKey = k }},
	}

	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg := DefaultConfig()
			cfg.Provider = p.provider
			p.set(&cfg, k)
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate reports whether the selected provider can be constructed.
// Real providers need their API key; mock needs nothing.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}

	required := map[string]struct {
		key string
		env string
	}{
		"anthropic":  {c.Anthropic.APIKey, "KOTOBA_ANTHROPIC_API_KEY"},
		"openai":     {c.OpenAI.APIKey, "KOTOBA_OPENAI_API_KEY"},
		"gemini":     {c.Gemini.APIKey, "KOTOBA_GEMINI_API_KEY"},
		"openrouter": {c.OpenRouter.APIKey, "KOTOBA_OPENROUTER_API_KEY"},
	}

	req, ok := required[c.Provider]
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if req.key == "" {
		return fmt.Errorf("%s is required for the %s provider", req.env, c.Provider)
	}
	return nil
}
