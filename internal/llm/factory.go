package llm

import (
	"context"
	"fmt"

	"github.com/sohta/kotoba/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	base, err := newBaseProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Provider == "mock" {
		return base, nil
	}

	// Retry sits outside logging so every attempt lands in the
	// event log, not just the final one.
	logged := WithLogging(base, cfg.Provider, eventRepo)
	retried := WithRetry(logged, cfg.Retry)

	return retried, nil
}

// NewChain builds the ordered provider chain as individual links: the
// configured primary first, then a provider for every backup whose API
// key is set. Each link carries its own retry and logging middleware.
// Callers that walk the chain themselves (the content selector) take
// the list; NewFallbackProvider folds it into one Provider.
func NewChain(ctx context.Context, cfg Config, eventRepo store.EventRepo) ([]Provider, error) {
	primary, err := NewProvider(ctx, cfg, eventRepo)
	if err != nil {
		return nil, err
	}

	chain := []Provider{primary}
	if cfg.Provider == "mock" {
		// A mock primary never falls back to real providers, whatever
		// keys the environment carries.
		return chain, nil
	}
	for _, name := range fallbackOrder(cfg.Provider) {
		bcfg := cfg
		bcfg.Provider = name
		if bcfg.Validate() != nil {
			continue // no API key for this backup
		}
		backup, err := NewProvider(ctx, bcfg, eventRepo)
		if err != nil {
			continue
		}
		chain = append(chain, backup)
	}
	return chain, nil
}

// NewFallbackProvider chains the primary provider with every configured
// backup so a dead primary degrades instead of failing.
func NewFallbackProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	chain, err := NewChain(ctx, cfg, eventRepo)
	if err != nil {
		return nil, err
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return WithFallback(chain...), nil
}

func newBaseProvider(ctx context.Context, cfg Config) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return base, nil
}

// fallbackOrder lists the providers to try after the primary, in the
// same priority order DiscoverConfig uses.
func fallbackOrder(primary string) []string {
	order := []string{"gemini", "openai", "anthropic", "openrouter"}
	out := make([]string, 0, len(order)-1)
	for _, name := range order {
		if name != primary {
			out = append(out, name)
		}
	}
	return out
}
