package selector

import "github.com/sohta/kotoba/internal/llm"

// ContentSchema defines the JSON schema for content generation responses.
var ContentSchema = &llm.Schema{
	Name:        "graded-content",
	Description: "A single piece of graded reading material with vocabulary annotations",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short title in the target language",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "The full content body, written only in the target language",
			},
			"translation": map[string]any{
				"type":        "string",
				"description": "English translation of the body. Required in beginner mode, otherwise may be empty.",
			},
			"vocabulary": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"word": map[string]any{
							"type":        "string",
							"description": "The word as it appears in the body",
						},
						"reading": map[string]any{
							"type":        "string",
							"description": "Pronunciation guide (kana for Japanese). Empty if not applicable.",
						},
						"meaning": map[string]any{
							"type":        "string",
							"description": "Short English gloss",
						},
						"level": map[string]any{
							"type":        "string",
							"description": "Proficiency level of the word, e.g. N4 or B1",
						},
					},
					"required":             []any{"word", "reading", "meaning", "level"},
					"additionalProperties": false,
				},
				"description": "Every content word used in the body, one entry per distinct word",
			},
			"grammar_tags": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"description": "Grammar points the body exercises, e.g. \"te-form\", \"past-tense\"",
			},
			"topic_tags": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"description": "Subject-matter tags, lowercase, e.g. \"food\", \"travel\"",
			},
			"word_count": map[string]any{
				"type":        "integer",
				"description": "Self-reported body length in words (characters for Japanese)",
			},
		},
		"required":             []any{"title", "body", "translation", "vocabulary", "grammar_tags", "topic_tags", "word_count"},
		"additionalProperties": false,
	},
}

// GradingSchema defines the JSON schema for the independent clarity
// grading call. Score bounds are not part of the schema; an out-of-range
// score goes through the grading retry rather than failing validation.
var GradingSchema = &llm.Schema{
	Name:        "content-grade",
	Description: "A clarity and level-appropriateness grade for generated content",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"description": "Overall quality from 0 (unusable) to 100 (excellent)",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One or two sentences explaining the score",
			},
		},
		"required":             []any{"score", "feedback"},
		"additionalProperties": false,
	},
}
