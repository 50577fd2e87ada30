package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/memory"
	"github.com/sohta/kotoba/internal/placement"
	"github.com/sohta/kotoba/internal/selector"
	"github.com/sohta/kotoba/internal/store"
)

// ContentRequest asks for the next piece of study material.
type ContentRequest struct {
	UserID      string               `json:"userId"`
	Language    string               `json:"language"`
	ContentType selector.ContentType `json:"contentType"`

	// Goal is an optional free-form topic hint ("order food at a
	// restaurant") folded into the topic tags.
	Goal string `json:"goal,omitempty"`

	// TopicTags override the profile's learned interests when set.
	TopicTags []string `json:"topicTags,omitempty"`

	// DifficultyTarget overrides the profile's suggested difficulty.
	DifficultyTarget *float64 `json:"difficultyTarget,omitempty"`

	// NewWordBudget overrides the default cap on new vocabulary.
	NewWordBudget int `json:"newWordBudget,omitempty"`
}

// ContentResult is a served content item with its provenance.
type ContentResult struct {
	ContentID   string               `json:"contentId"`
	ContentType selector.ContentType `json:"contentType"`
	ContentURL  string               `json:"contentUrl"`
	Language    string               `json:"language"`
	Source      selector.Source      `json:"source"`
	Content     selector.Content     `json:"content"`

	RunID    string `json:"runId"`
	Model    string `json:"model,omitempty"`
	Attempts int    `json:"attempts"`
}

// RequestContent serves the next content item for the learner: a stored
// item when one scores well enough, a fresh generation otherwise.
// Duplicate concurrent requests for the same (user, language, type)
// collapse onto a single selection run.
func (e *Engine) RequestContent(ctx context.Context, req ContentRequest) (*ContentResult, error) {
	if req.UserID == "" || req.Language == "" {
		return nil, fmt.Errorf("%w: userId and language are required", ErrInvalidRequest)
	}
	if !req.ContentType.IsValid() {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrInvalidRequest, req.ContentType)
	}

	key := req.UserID + "|" + req.Language + "|" + string(req.ContentType)
	v, err, _ := e.genGroup.Do(key, func() (any, error) {
		return e.selectAndServe(ctx, req, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ContentResult), nil
}

func (e *Engine) selectAndServe(ctx context.Context, req ContentRequest, key string) (*ContentResult, error) {
	now := e.now().UTC()

	profile, err := e.GetProfile(ctx, req.UserID, req.Language)
	if err != nil {
		return nil, err
	}

	known, err := e.knownWordSet(ctx, req.UserID, req.Language)
	if err != nil {
		return nil, err
	}

	spec, err := e.buildTargetSpec(ctx, req, profile, now)
	if err != nil {
		return nil, err
	}

	reusable, err := e.reuseCandidates(ctx, req, now)
	if err != nil {
		return nil, err
	}

	// Cross-process dedup: hold the fleet-wide run lock while selecting.
	// A loser waits out the winner and reloads the candidate pool, which
	// by then may contain the winner's freshly generated item.
	release, acquired, err := e.locker.Acquire(ctx, "kotoba:gen:"+key, e.cfg.RunLockTTL)
	if err != nil {
		e.log.Warn("run lock unavailable", "key", key, "error", err)
	} else if acquired {
		defer release()
	} else {
		select {
		case <-time.After(e.cfg.RunLockWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if reloaded, err := e.reuseCandidates(ctx, req, now); err == nil {
			reusable = reloaded
		}
	}

	result, err := e.selector.Select(ctx, selector.Input{
		Spec:          spec,
		LearnerTopics: learner.TopInterests(profile.InterestWeights, e.cfg.InterestTopicLimit),
		KnownWords:    func(word string) bool { return known[word] },
		Reusable:      reusable,
	})
	if err != nil {
		return nil, err
	}

	contentID := result.ContentID
	if result.Source == selector.SourceGenerated {
		contentID = result.CandidateID
		rec, err := recordFromContent(contentID, req, result, spec, now)
		if err != nil {
			return nil, err
		}
		if err := e.contents.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("engine: store generated content: %w", err)
		}
		e.seedVocabulary(ctx, req.UserID, req.Language, result.Content.Vocabulary, known, now)
	}

	if err := e.contents.RecordView(ctx, contentID, req.UserID, now); err != nil {
		e.log.Warn("record view failed", "contentId", contentID, "error", err)
	}
	e.appendEvent(ctx, store.EventContentServed, req.UserID, map[string]any{
		"contentId":   contentID,
		"contentType": req.ContentType,
		"language":    req.Language,
		"source":      result.Source,
		"runId":       result.RunID,
	})

	e.log.Info("content served",
		"userId", req.UserID,
		"language", req.Language,
		"contentType", req.ContentType,
		"source", result.Source,
		"contentId", contentID,
		"attempts", result.Attempts,
	)

	return &ContentResult{
		ContentID:   contentID,
		ContentType: req.ContentType,
		ContentURL:  "/v1/contents/" + contentID,
		Language:    req.Language,
		Source:      result.Source,
		Content:     result.Content,
		RunID:       result.RunID,
		Model:       result.Model,
		Attempts:    result.Attempts,
	}, nil
}

// buildTargetSpec turns the learner's profile and the request into a
// generation target. Due review items are woven in as must-use words so
// spaced repetition and content selection reinforce each other.
func (e *Engine) buildTargetSpec(ctx context.Context, req ContentRequest, profile *learner.Profile, now time.Time) (selector.TargetSpec, error) {
	difficulty := profile.SuggestedDifficulty()
	if req.DifficultyTarget != nil {
		difficulty = *req.DifficultyTarget
	}

	level := profile.VocabCoverage.TargetLevel
	if level == "" {
		level = placement.ScaleFor(req.Language).LevelFor(profile.AbilityEstimate)
	}

	budget := req.NewWordBudget
	if budget <= 0 {
		budget = e.cfg.VocabBudget
	}

	topics := req.TopicTags
	if len(topics) == 0 {
		topics = learner.TopInterests(profile.InterestWeights, e.cfg.InterestTopicLimit)
	}
	if req.Goal != "" {
		topics = append(topics, req.Goal)
	}

	due, err := e.cards.Due(ctx, req.UserID, req.Language, now, 2*e.cfg.DueWordLimit)
	if err != nil {
		return selector.TargetSpec{}, err
	}
	var mustUse, prefer []string
	for i, card := range due {
		if i < e.cfg.DueWordLimit {
			mustUse = append(mustUse, card.ItemID)
		} else {
			prefer = append(prefer, card.ItemID)
		}
	}

	return selector.TargetSpec{
		Language:         req.Language,
		ContentType:      req.ContentType,
		DifficultyTarget: difficulty,
		TargetLevel:      level,
		VocabBudget:      budget,
		TopicTags:        topics,
		MustUseWords:     mustUse,
		PreferWords:      prefer,
		BeginnerMode:     profile.Readiness.Level == learner.NotReady,
	}, nil
}

// knownWordSet loads every item the learner has a card for, however
// young. Generation treats a word in review as known so new-word budgets
// count genuinely new vocabulary.
func (e *Engine) knownWordSet(ctx context.Context, userID, language string) (map[string]bool, error) {
	items, err := e.cards.KnownItems(ctx, userID, language, 0)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item] = true
	}
	return known, nil
}

func (e *Engine) reuseCandidates(ctx context.Context, req ContentRequest, now time.Time) ([]selector.ReuseCandidate, error) {
	records, err := e.contents.Reusable(ctx, store.ReuseQuery{
		UserID:      req.UserID,
		Language:    req.Language,
		ContentType: string(req.ContentType),
		ViewedSince: now.Add(-e.selector.Config().RecencyWindow),
	})
	if err != nil {
		return nil, err
	}
	out := make([]selector.ReuseCandidate, 0, len(records))
	for i := range records {
		c, err := reuseCandidateFromRecord(&records[i])
		if err != nil {
			e.log.Warn("skipping unreadable content record", "contentId", records[i].ID, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// seedVocabulary creates review cards for the new words a generated item
// introduced, so they enter the spaced-repetition queue immediately.
// Seeding failures are logged, not surfaced: the content is already
// stored and served.
func (e *Engine) seedVocabulary(ctx context.Context, userID, language string, vocab []selector.VocabEntry, known map[string]bool, now time.Time) {
	var cards []memory.Card
	for _, v := range vocab {
		if v.Word == "" || known[v.Word] {
			continue
		}
		cards = append(cards, memory.NewCard(v.Word, now))
	}
	if len(cards) == 0 {
		return
	}
	if err := e.cards.Seed(ctx, userID, language, cards); err != nil {
		e.log.Warn("seed vocabulary cards failed", "userId", userID, "count", len(cards), "error", err)
	}
}

// GetContent returns a stored content item by ID.
func (e *Engine) GetContent(ctx context.Context, id string) (*ContentItem, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: content id is required", ErrInvalidRequest)
	}
	rec, err := e.contents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrContentNotFound
	}
	return contentItemFromRecord(rec)
}

// ContentItem is the read view of one stored content item.
type ContentItem struct {
	ContentID   string               `json:"contentId"`
	ContentType selector.ContentType `json:"contentType"`
	Language    string               `json:"language"`
	Content     selector.Content     `json:"content"`
	Difficulty  float64              `json:"difficulty"`
	Level       string               `json:"level,omitempty"`
	Source      string               `json:"source"`
	Model       string               `json:"model,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func recordFromContent(id string, req ContentRequest, result *selector.Result, spec selector.TargetSpec, now time.Time) (*store.ContentRecord, error) {
	vocab, err := json.Marshal(result.Content.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("engine: encode vocabulary: %w", err)
	}
	grammar, err := json.Marshal(result.Content.GrammarTags)
	if err != nil {
		return nil, fmt.Errorf("engine: encode grammar tags: %w", err)
	}
	topics, err := json.Marshal(result.Content.TopicTags)
	if err != nil {
		return nil, fmt.Errorf("engine: encode topic tags: %w", err)
	}
	return &store.ContentRecord{
		ID:          id,
		Language:    req.Language,
		ContentType: string(req.ContentType),
		Title:       result.Content.Title,
		Body:        result.Content.Body,
		Translation: result.Content.Translation,
		Vocabulary:  vocab,
		GrammarTags: grammar,
		TopicTags:   topics,
		WordCount:   result.Content.WordCount,
		Difficulty:  spec.DifficultyTarget,
		Level:       spec.TargetLevel,
		Source:      string(selector.SourceGenerated),
		Model:       result.Model,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func contentPayloadFromRecord(rec *store.ContentRecord) (selector.Content, error) {
	c := selector.Content{
		Title:       rec.Title,
		Body:        rec.Body,
		Translation: rec.Translation,
		WordCount:   rec.WordCount,
	}
	if len(rec.Vocabulary) > 0 {
		if err := json.Unmarshal(rec.Vocabulary, &c.Vocabulary); err != nil {
			return selector.Content{}, fmt.Errorf("engine: decode vocabulary: %w", err)
		}
	}
	if len(rec.GrammarTags) > 0 {
		if err := json.Unmarshal(rec.GrammarTags, &c.GrammarTags); err != nil {
			return selector.Content{}, fmt.Errorf("engine: decode grammar tags: %w", err)
		}
	}
	if len(rec.TopicTags) > 0 {
		if err := json.Unmarshal(rec.TopicTags, &c.TopicTags); err != nil {
			return selector.Content{}, fmt.Errorf("engine: decode topic tags: %w", err)
		}
	}
	return c, nil
}

func reuseCandidateFromRecord(rec *store.ContentRecord) (selector.ReuseCandidate, error) {
	content, err := contentPayloadFromRecord(rec)
	if err != nil {
		return selector.ReuseCandidate{}, err
	}
	var completionRate float64
	if rec.ViewCount > 0 {
		completionRate = float64(rec.CompletedCount) / float64(rec.ViewCount)
	}
	return selector.ReuseCandidate{
		ContentID:      rec.ID,
		Content:        content,
		Difficulty:     rec.Difficulty,
		AvgScore:       rec.AvgScore,
		CompletionRate: completionRate,
	}, nil
}

func contentItemFromRecord(rec *store.ContentRecord) (*ContentItem, error) {
	content, err := contentPayloadFromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &ContentItem{
		ContentID:   rec.ID,
		ContentType: selector.ContentType(rec.ContentType),
		Language:    rec.Language,
		Content:     content,
		Difficulty:  rec.Difficulty,
		Level:       rec.Level,
		Source:      rec.Source,
		Model:       rec.Model,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
