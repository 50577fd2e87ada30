package selector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sohta/kotoba/internal/llm"
)

// gradeOutput is the raw grading response.
type gradeOutput struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// gradeContent asks an independent model call to score the content 0-100.
// A score outside that range gets exactly one retry before surfacing as
// ErrGradingOutOfRange. Returns clarity normalized to [0,1], the
// feedback text, and the number of calls made.
func (s *Selector) gradeContent(ctx context.Context, spec TargetSpec, content Content) (float64, string, int, error) {
	calls := 0
	var lastScore float64

	for attempt := 0; attempt < 2; attempt++ {
		calls++
		out, err := s.callGrader(ctx, spec, content)
		if err != nil {
			return 0, "", calls, err
		}
		if out.Score >= 0 && out.Score <= 100 {
			return out.Score / 100, out.Feedback, calls, nil
		}
		lastScore = out.Score
	}

	return 0, "", calls, &ErrGradingOutOfRange{Score: lastScore}
}

// callGrader performs a single bounded grading call.
func (s *Selector) callGrader(ctx context.Context, spec TargetSpec, content Content) (*gradeOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, llm.PurposeGrading)

	resp, err := s.grader.Generate(ctx, llm.Request{
		System: gradingSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGradingPrompt(spec, content)},
		},
		Schema:    GradingSchema,
		MaxTokens: s.config.GradeMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("grading call: %w", err)
	}

	var out gradeOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse grading response: %w", err)
	}
	return &out, nil
}
