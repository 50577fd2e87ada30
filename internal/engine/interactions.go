package engine

import (
	"context"
	"fmt"

	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/store"
)

// InteractionRequest reports one completed study interaction.
type InteractionRequest struct {
	UserID      string              `json:"userId"`
	Language    string              `json:"language"`
	ContentID   string              `json:"contentId,omitempty"`
	Interaction learner.Interaction `json:"interaction"`
}

// InteractionResult returns the profile after the update plus the
// per-skill deltas the update produced.
type InteractionResult struct {
	Profile *learner.Profile       `json:"profile"`
	Summary *learner.UpdateSummary `json:"summary"`
}

// SubmitInteraction folds one interaction into the learner's profile.
// When the interaction reports completed engagement with a known content
// item, the item's aggregates absorb the score as well.
func (e *Engine) SubmitInteraction(ctx context.Context, req InteractionRequest) (*InteractionResult, error) {
	if req.UserID == "" || req.Language == "" {
		return nil, fmt.Errorf("%w: userId and language are required", ErrInvalidRequest)
	}

	now := e.now().UTC()

	var summary *learner.UpdateSummary
	profile, err := e.updateProfile(ctx, req.UserID, req.Language, func(p *learner.Profile) (*learner.Profile, error) {
		updated, s, err := learner.Apply(p, req.Interaction, now)
		if err != nil {
			return nil, err
		}
		summary = s
		return updated, nil
	})
	if err != nil {
		return nil, err
	}

	eng := req.Interaction.Engagement
	if req.ContentID != "" && eng != nil && eng.Completed {
		if err := e.contents.RecordCompletion(ctx, req.ContentID, req.UserID, float64(req.Interaction.Score), now); err != nil {
			e.log.Warn("record completion failed", "contentId", req.ContentID, "userId", req.UserID, "error", err)
		}
	}

	e.appendEvent(ctx, store.EventInteraction, req.UserID, map[string]any{
		"language":  req.Language,
		"contentId": req.ContentID,
		"score":     req.Interaction.Score,
	})

	return &InteractionResult{Profile: profile, Summary: summary}, nil
}

// GetProfile returns the learner's stored profile, or a fresh default
// when none exists yet. The default is not persisted; it gains a row on
// the first write.
func (e *Engine) GetProfile(ctx context.Context, userID, language string) (*learner.Profile, error) {
	if userID == "" || language == "" {
		return nil, fmt.Errorf("%w: userId and language are required", ErrInvalidRequest)
	}
	p, _, err := e.profiles.Get(ctx, userID, language)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = learner.NewProfile(userID, language)
	}
	return p, nil
}
