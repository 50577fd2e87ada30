package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/sohta/kotoba/internal/llm"
)

// contentOutput is the raw LLM response before checks.
type contentOutput struct {
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Translation string       `json:"translation"`
	Vocabulary  []VocabEntry `json:"vocabulary"`
	GrammarTags []string     `json:"grammar_tags"`
	TopicTags   []string     `json:"topic_tags"`
	WordCount   int          `json:"word_count"`
}

// generated is one successful run of the generation pipeline.
type generated struct {
	candidate Candidate
	model     string
	attempts  int
	feedback  string
}

// generateOne walks the model chain until one model returns content
// passing the structural check, then grades it and assembles a scored
// candidate.
func (s *Selector) generateOne(ctx context.Context, spec TargetSpec, known func(string) bool) (*generated, error) {
	if len(s.providers) == 0 {
		return nil, &ErrNoProviders{}
	}

	attempts := 0
	var lastErr error

	for _, p := range s.providers {
		attempts++
		content, model, err := s.callModel(ctx, p, spec)
		if err != nil {
			lastErr = err
			continue
		}
		if err := structuralCheck(content); err != nil {
			lastErr = err
			continue
		}

		clarity, feedback, gradeCalls, err := s.gradeContent(ctx, spec, *content)
		attempts += gradeCalls
		if err != nil {
			return nil, err
		}

		out := &generated{
			candidate: Candidate{
				CandidateID: uuid.NewString(),
				Content:     *content,
				Constraints: s.computeConstraints(*content, spec, known),
			},
			model:    model,
			attempts: attempts,
			feedback: feedback,
		}
		out.candidate.Scores = s.scoreGenerated(out.candidate.Constraints, spec, clarity)
		return out, nil
	}

	return nil, &ErrGenerationFailed{Attempts: attempts, Err: lastErr}
}

// callModel performs a single bounded generation call against one model.
func (s *Selector) callModel(ctx context.Context, p llm.Provider, spec TargetSpec) (*Content, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, llm.PurposeGeneration)

	resp, err := p.Generate(ctx, llm.Request{
		System: contentSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildContentPrompt(spec)},
		},
		Schema:      ContentSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return nil, p.ModelID(), fmt.Errorf("content generation call: %w", err)
	}

	var raw contentOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, resp.Model, fmt.Errorf("parse content response: %w", err)
	}

	content := &Content{
		Title:       strings.TrimSpace(raw.Title),
		Body:        strings.TrimSpace(raw.Body),
		Translation: strings.TrimSpace(raw.Translation),
		Vocabulary:  raw.Vocabulary,
		GrammarTags: raw.GrammarTags,
		TopicTags:   raw.TopicTags,
		WordCount:   countWords(raw.Body, spec.Language),
	}
	return content, resp.Model, nil
}

// structuralCheck is the minimal bar a model's output must clear before
// scoring: a non-empty title and body.
func structuralCheck(c *Content) error {
	if c.Title == "" {
		return fmt.Errorf("generated content has empty title")
	}
	if c.Body == "" {
		return fmt.Errorf("generated content has empty body")
	}
	return nil
}

// computeConstraints measures the generated content against the target.
func (s *Selector) computeConstraints(c Content, spec TargetSpec, known func(string) bool) Constraints {
	con := Constraints{GrammarMatch: true, LengthOK: true}

	if len(c.Vocabulary) > 0 {
		knownCount := 0
		for _, v := range c.Vocabulary {
			if known != nil && known(v.Word) {
				knownCount++
			}
		}
		con.Coverage = float64(knownCount) / float64(len(c.Vocabulary))
		con.NewWordCount = len(c.Vocabulary) - knownCount
	}

	if len(spec.RequiredGrammarTags) > 0 {
		con.GrammarMatch = false
		for _, req := range spec.RequiredGrammarTags {
			for _, got := range c.GrammarTags {
				if strings.EqualFold(req, got) {
					con.GrammarMatch = true
					break
				}
			}
			if con.GrammarMatch {
				break
			}
		}
	}

	if spec.TargetWordCount > 0 {
		deviation := abs(float64(c.WordCount)-float64(spec.TargetWordCount)) / float64(spec.TargetWordCount)
		con.LengthOK = deviation <= s.config.LengthTolerance
	}

	return con
}

// scoreGenerated maps constraints and the grading verdict onto the same
// four components used for reuse scoring. Novelty is 1 by definition:
// the learner has never seen freshly generated content.
func (s *Selector) scoreGenerated(con Constraints, spec TargetSpec, clarity float64) Scores {
	sc := Scores{
		DifficultyFit: clamp01(1 - abs(con.Coverage-s.config.CoverageTarget)/s.config.CoverageTolerance),
		InterestFit:   0.5,
		Clarity:       clamp01(clarity),
		Novelty:       1,
	}
	if len(spec.TopicTags) > 0 {
		sc.InterestFit = 1
	}
	sc.Total = s.config.weightedTotal(sc)
	return sc
}

// countWords measures body length: whitespace-separated words for
// spaced scripts, non-space runes for Japanese and Chinese.
func countWords(body, language string) int {
	switch language {
	case "japanese", "chinese":
		n := 0
		for _, r := range body {
			if !unicode.IsSpace(r) {
				n++
			}
		}
		return n
	default:
		return len(strings.Fields(body))
	}
}
