package llm

import (
	"context"
	"errors"
	"fmt"
)

// FallbackProvider is a decorator that tries a chain of providers in
// order, moving to the next when the current one is unavailable or rate
// limited. Schema violations are not passed along the chain: they mean
// the request itself is producing bad output, and the retry decorator
// already gave the model a second chance.
type FallbackProvider struct {
	chain []Provider
}

// WithFallback chains providers in priority order. Panics if the chain
// is empty; a single provider is returned unwrapped.
func WithFallback(providers ...Provider) Provider {
	if len(providers) == 0 {
		panic("llm: fallback chain must have at least one provider")
	}
	if len(providers) == 1 {
		return providers[0]
	}
	return &FallbackProvider{chain: providers}
}

func (f *FallbackProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var errs []error
	for _, p := range f.chain {
		resp, err := p.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !fallbackWorthy(err) {
			return nil, err
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.ModelID(), err))
	}
	return nil, fmt.Errorf("all providers in fallback chain failed: %w", errors.Join(errs...))
}

// ModelID reports the primary provider's model; fallbacks are an
// operational detail.
func (f *FallbackProvider) ModelID() string {
	return f.chain[0].ModelID()
}

// fallbackWorthy reports whether the next provider in the chain should
// be tried after this error.
func fallbackWorthy(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) {
		return true
	}
	return false
}
