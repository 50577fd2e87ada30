package llm

import (
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"word":  map[string]any{"type": "string"},
			"rank":  map[string]any{"type": "integer"},
			"level": map[string]any{"type": "string", "enum": []any{"N5", "N4", "N3"}},
			"reviews": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
		"required": []any{"word", "rank"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["word"].Type != "STRING" {
		t.Fatalf("expected STRING for word, got %s", schema.Properties["word"].Type)
	}
	if schema.Properties["rank"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for rank, got %s", schema.Properties["rank"].Type)
	}
	if len(schema.Properties["level"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["level"].Enum))
	}
	if schema.Properties["reviews"].Type != "ARRAY" {
		t.Fatalf("expected ARRAY for reviews, got %s", schema.Properties["reviews"].Type)
	}
	if schema.Properties["reviews"].Items.Type != "INTEGER" {
		t.Fatalf("expected INTEGER for reviews items, got %s", schema.Properties["reviews"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}
