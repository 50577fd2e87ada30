package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func vocabSchema() *Schema {
	return &Schema{
		Name:        "vocab-entry",
		Description: "A vocabulary entry",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"word":  map[string]any{"type": "string"},
				"count": map[string]any{"type": "integer", "minimum": 0},
				"level": map[string]any{"type": "string", "enum": []any{"N5", "N4", "N3"}},
			},
			"required": []any{"word", "count"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"all fields valid", `{"word":"neko","count":3,"level":"N5"}`, false},
		{"optional field omitted", `{"word":"inu","count":1}`, false},
		{"missing required field", `{"word":"tori"}`, true},
		{"wrong field type", `{"word":"sakana","count":"three"}`, true},
		{"enum violation", `{"word":"uma","count":2,"level":"N1"}`, true},
		{"negative count", `{"word":"kuma","count":-1}`, true},
		{"malformed JSON", `{not json}`, true},
		{"empty payload", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(vocabSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected validation to pass, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation to fail")
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
			}
		})
	}
}

func TestValidateResponse_PreservesRawContent(t *testing.T) {
	raw := json.RawMessage(`{"word":"tori"}`)
	err := validateResponse(vocabSchema(), raw)

	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
	if !bytes.Equal(invErr.Content, raw) {
		t.Fatalf("expected rejected content to round-trip, got %s", invErr.Content)
	}
}

func TestValidateResponse_NilSchemaAcceptsAnything(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("nil schema must accept all output, got: %v", err)
	}
	// Without a schema the payload is not even parsed.
	if err := validateResponse(nil, json.RawMessage(`not json`)); err != nil {
		t.Fatalf("nil schema must skip parsing, got: %v", err)
	}
}

func TestValidateResponse_NestedDefinition(t *testing.T) {
	schema := &Schema{
		Name:        "grade-result",
		Description: "Graded answer with per-criterion scores",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"verdict": map[string]any{
					"type": "string",
					"enum": []any{"correct", "partial", "incorrect"},
				},
				"criteria": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":  map[string]any{"type": "string"},
							"score": map[string]any{"type": "number"},
						},
						"required": []any{"name", "score"},
					},
				},
			},
			"required": []any{"verdict", "criteria"},
		},
	}

	good := json.RawMessage(`{"verdict":"partial","criteria":[{"name":"grammar","score":0.5}]}`)
	if err := validateResponse(schema, good); err != nil {
		t.Fatalf("expected valid nested payload, got: %v", err)
	}

	bad := json.RawMessage(`{"verdict":"partial","criteria":[{"name":"grammar"}]}`)
	if err := validateResponse(schema, bad); err == nil {
		t.Fatal("expected missing criterion score to fail")
	}
}

func TestValidateResponse_CachedSchemaStillValidates(t *testing.T) {
	schema := vocabSchema()
	for i := 0; i < 3; i++ {
		if err := validateResponse(schema, json.RawMessage(`{"word":"uma","count":2}`)); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	if err := validateResponse(schema, json.RawMessage(`{"count":5}`)); err == nil {
		t.Fatal("expected cached schema to reject a missing word")
	}
}
