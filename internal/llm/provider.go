package llm

import (
	"context"
	"encoding/json"
)

// Provider is one model endpoint the engine can generate with. The
// content selector walks a []Provider chain, so implementations must be
// safe for concurrent Generate calls.
type Provider interface {
	// Generate sends a prompt and returns structured output. When the
	// request carries a Schema the returned Content is JSON already
	// validated against it; truncated output surfaces as
	// *ErrMaxTokensExceeded rather than a partial Response.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string
}

// Request describes one model call.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation history. Content generation and
	// grading are single-turn, so this is usually one user message.
	Messages []Message

	// Schema, when set, makes the provider use its native structured
	// output mechanism and validate the result. When nil the response
	// Content is whatever text the model produced.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness, 0.0 to 1.0. Zero means
	// deterministic.
	Temperature float64
}

// Message is a single turn in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a JSON Schema the model output must conform to.
type Schema struct {
	// Name identifies the schema, kebab-case ("reading-content"). It
	// keys the compiled-schema cache and names the output format for
	// providers that want one.
	Name string

	// Description tells the model what the schema represents.
	Description string

	// Definition is the JSON Schema document, expressed as nested
	// maps the way encoding/json would decode it.
	Definition map[string]any
}

// Response is the model's output.
type Response struct {
	// Content is the generated output, validated against the request
	// Schema when one was set.
	Content json.RawMessage

	// Usage counts the tokens this call consumed.
	Usage Usage

	// Model is the model that actually served the request, as reported
	// by the provider.
	Model string

	// StopReason is why generation stopped. Successful responses are
	// always "end"; truncation is reported as an error instead.
	StopReason string
}

// Usage is the token accounting for one provider call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// resolveModel maps a friendly model name through the provider's alias
// table; unknown names pass through as literal model IDs.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
