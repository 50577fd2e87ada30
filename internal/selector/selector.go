// Package selector decides which piece of content a learner gets next:
// an existing item when one fits well enough, freshly generated content
// otherwise. Reuse is scored locally from stored aggregates; generation
// runs a model chain with schema-validated output and an independent
// grading call. The selector persists nothing.
package selector

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sohta/kotoba/internal/llm"
)

// Selector implements the two-phase reuse-first, generate-as-fallback
// decision.
type Selector struct {
	providers []llm.Provider
	grader    llm.Provider
	config    Config
}

// New creates a Selector. providers is the generation chain in priority
// order; grader serves the independent clarity grading call and may be
// one of the chain's providers.
func New(providers []llm.Provider, grader llm.Provider, cfg Config) *Selector {
	return &Selector{
		providers: providers,
		grader:    grader,
		config:    cfg.withDefaults(),
	}
}

// Config returns the effective configuration, defaults applied. Callers
// use it to honor the recency window when querying reuse candidates.
func (s *Selector) Config() Config {
	return s.config
}

// Input carries everything a selection run needs. The caller resolves
// learner state up front so the selector stays storage-free.
type Input struct {
	// Spec is the generation target, also the source of the reuse
	// target difficulty.
	Spec TargetSpec

	// LearnerTopics are the learner's positive interest topics.
	LearnerTopics []string

	// KnownWords reports whether the learner already knows a word. Nil
	// means no words are known.
	KnownWords func(word string) bool

	// Reusable are existing items already filtered by language, content
	// type, and the recency window.
	Reusable []ReuseCandidate
}

// Select runs both phases and returns the winner with provenance.
func (s *Selector) Select(ctx context.Context, input Input) (*Result, error) {
	runID := uuid.NewString()

	// Phase 1: reuse. A good enough existing item skips generation
	// entirely.
	ranked := s.rankReuse(input.Reusable, input.Spec.DifficultyTarget, input.LearnerTopics)
	if len(ranked) > 0 && ranked[0].Scores.Total >= s.config.ReuseThreshold {
		return &Result{
			Candidate: ranked[0],
			Source:    SourceReused,
			ContentID: ranked[0].CandidateID,
			RunID:     runID,
		}, nil
	}

	// Phase 2: generate N candidates concurrently and keep the best.
	// Sibling failures don't cancel each other; selection fails only
	// when every candidate does.
	n := s.config.Candidates
	results := make([]*generated, n)
	failures := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			out, err := s.generateOne(gctx, input.Spec, input.KnownWords)
			results[i], failures[i] = out, err
			return nil
		})
	}
	_ = g.Wait()

	var best *generated
	totalAttempts := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		totalAttempts += r.attempts
		if best == nil || r.candidate.Scores.Total > best.candidate.Scores.Total {
			best = r
		}
	}
	if best == nil {
		return nil, errors.Join(failures...)
	}

	return &Result{
		Candidate:     best.candidate,
		Source:        SourceGenerated,
		RunID:         runID,
		Model:         best.model,
		Attempts:      totalAttempts,
		GradeFeedback: best.feedback,
	}, nil
}
