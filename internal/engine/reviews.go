package engine

import (
	"context"
	"fmt"

	"github.com/sohta/kotoba/internal/memory"
	"github.com/sohta/kotoba/internal/store"
)

// ReviewRequest grades one flashcard recall.
type ReviewRequest struct {
	UserID   string        `json:"userId"`
	Language string        `json:"language"`
	ItemID   string        `json:"itemId"`
	Rating   memory.Rating `json:"rating"`

	// RequestedRetention overrides the scheduler's retention target for
	// this review only. Zero means the configured default.
	RequestedRetention float64 `json:"requestedRetention,omitempty"`
}

// ReviewResult is the card after the review plus the review log entry.
type ReviewResult struct {
	Card memory.Card      `json:"card"`
	Log  memory.ReviewLog `json:"log"`
}

// SubmitReview applies one recall rating to the learner's card for the
// item, creating the card on first contact, and persists the new state.
func (e *Engine) SubmitReview(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	if req.UserID == "" || req.Language == "" || req.ItemID == "" {
		return nil, fmt.Errorf("%w: userId, language and itemId are required", ErrInvalidRequest)
	}
	if !req.Rating.IsValid() {
		return nil, fmt.Errorf("%w: unknown rating %d", ErrInvalidRequest, req.Rating)
	}

	sched := e.scheduler
	if req.RequestedRetention != 0 {
		var err error
		sched, err = memory.NewScheduler(memory.Config{
			Weights:            e.schedCfg.Weights,
			RequestedRetention: req.RequestedRetention,
			MaximumInterval:    e.schedCfg.MaximumInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	unlock := e.keys.Lock("card|" + req.UserID + "|" + req.ItemID)
	defer unlock()

	now := e.now().UTC()

	card, err := e.cards.Get(ctx, req.UserID, req.ItemID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		c := memory.NewCard(req.ItemID, now)
		card = &c
	}

	updated, reviewLog, err := sched.ReviewCard(*card, req.Rating, now)
	if err != nil {
		return nil, err
	}

	if err := e.cards.Save(ctx, req.UserID, req.Language, updated); err != nil {
		return nil, err
	}

	e.appendEvent(ctx, store.EventReview, req.UserID, map[string]any{
		"language": req.Language,
		"itemId":   req.ItemID,
		"rating":   req.Rating.String(),
		"due":      updated.Due,
	})

	return &ReviewResult{Card: updated, Log: reviewLog}, nil
}

// DueCards lists the learner's cards due for review, most overdue first.
// limit <= 0 means no limit.
func (e *Engine) DueCards(ctx context.Context, userID, language string, limit int) ([]memory.Card, error) {
	if userID == "" || language == "" {
		return nil, fmt.Errorf("%w: userId and language are required", ErrInvalidRequest)
	}
	return e.cards.Due(ctx, userID, language, e.now().UTC(), limit)
}

// PreviewIntervals returns the card state each rating would produce,
// without persisting anything.
func (e *Engine) PreviewIntervals(card memory.Card) map[memory.Rating]memory.Card {
	return e.scheduler.PreviewCard(card, e.now().UTC())
}
