package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/placement"
	"github.com/sohta/kotoba/internal/store"
)

// StartPlacement opens an adaptive placement test for the learner.
func (e *Engine) StartPlacement(ctx context.Context, userID, language string) (*placement.Test, error) {
	if userID == "" || language == "" {
		return nil, fmt.Errorf("%w: userId and language are required", ErrInvalidRequest)
	}

	t := placement.NewTest(uuid.NewString(), userID, language, e.now().UTC())
	if err := e.placements.Create(ctx, t); err != nil {
		return nil, err
	}

	e.appendEvent(ctx, store.EventPlacementStarted, userID, map[string]any{
		"testId":   t.ID,
		"language": language,
	})
	return t, nil
}

// GetPlacement returns the current state of a placement test.
func (e *Engine) GetPlacement(ctx context.Context, testID string) (*placement.Test, error) {
	t, err := e.placements.Get(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrPlacementNotFound
	}
	return t, nil
}

// PlacementNextProbe tells the caller what to ask next: target
// difficulty, suggested skill, and whether the test wants to continue.
func (e *Engine) PlacementNextProbe(ctx context.Context, testID string) (*placement.Probe, error) {
	t, err := e.GetPlacement(ctx, testID)
	if err != nil {
		return nil, err
	}
	probe := e.placer.NextProbe(t)
	return &probe, nil
}

// PlacementAnswer submits one answer. Question carries the probe the
// caller actually asked; it registers on the test the first time the
// index is seen, so question registration and answering ride one call.
type PlacementAnswer struct {
	QuestionIndex int                 `json:"questionIndex"`
	Question      *placement.Question `json:"question,omitempty"`
	Answer        string              `json:"answer"`
}

// PlacementAnswerResult reports the graded answer and the test state
// after it, completion included.
type PlacementAnswerResult struct {
	IsCorrect bool            `json:"isCorrect"`
	Test      *placement.Test `json:"test"`
}

// SubmitPlacementAnswer grades one answer, persists the updated test,
// and, when the answer completes the test, seeds the learner's profile
// from the placement outcome.
func (e *Engine) SubmitPlacementAnswer(ctx context.Context, testID string, ans PlacementAnswer) (*PlacementAnswerResult, error) {
	unlock := e.keys.Lock("placement|" + testID)
	defer unlock()

	t, err := e.GetPlacement(ctx, testID)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()

	if ans.Question != nil && ans.QuestionIndex == len(t.Questions) {
		q := *ans.Question
		q.AskedAt = now
		t, err = e.placer.RegisterQuestion(t, q)
		if err != nil {
			return nil, err
		}
	}

	updated, correct, err := e.placer.SubmitAnswer(t, ans.QuestionIndex, ans.Answer, now)
	if err != nil {
		return nil, err
	}

	if err := e.placements.Update(ctx, updated); err != nil {
		return nil, err
	}

	if updated.Status == placement.Completed {
		e.seedProfileFromPlacement(ctx, updated)
		e.appendEvent(ctx, store.EventPlacementCompleted, updated.UserID, map[string]any{
			"testId":     updated.ID,
			"language":   updated.Language,
			"level":      updated.DeterminedLevel,
			"ability":    updated.AbilityEstimate,
			"confidence": updated.Confidence,
		})
	}

	return &PlacementAnswerResult{IsCorrect: correct, Test: updated}, nil
}

// seedProfileFromPlacement writes the placement outcome into the
// learner's profile: ability, confidence, and the vocabulary target for
// the determined level. The test is already persisted as completed, so a
// failed seed is logged and left for the next interaction to absorb,
// never surfaced to the test taker.
func (e *Engine) seedProfileFromPlacement(ctx context.Context, t *placement.Test) {
	_, err := e.updateProfile(ctx, t.UserID, t.Language, func(p *learner.Profile) (*learner.Profile, error) {
		p = learner.ApplyPlacement(p, t.AbilityEstimate, t.AbilityStandardError)
		cov := p.VocabCoverage
		cov.TargetLevel = t.DeterminedLevel
		if cov.TotalWords == 0 {
			cov.TotalWords = levelWordCount(t.DeterminedLevel)
		}
		return learner.SetVocabCoverage(p, cov), nil
	})
	if err != nil {
		e.log.Warn("seed profile from placement failed",
			"testId", t.ID, "userId", t.UserID, "error", err)
	}
}

// levelWordCount is the approximate vocabulary size of each proficiency
// level, used as the coverage denominator until a real word list loads.
func levelWordCount(level string) int {
	switch level {
	case "N5":
		return 800
	case "N4":
		return 1500
	case "N3":
		return 3750
	case "N2":
		return 6000
	case "N1":
		return 10000
	case "A1":
		return 500
	case "A2":
		return 1000
	case "B1":
		return 2000
	case "B2":
		return 4000
	case "C1":
		return 8000
	case "C2":
		return 16000
	default:
		return 0
	}
}
