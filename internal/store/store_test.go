package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/memory"
	"github.com/sohta/kotoba/internal/placement"
)

// openTestStore opens an in-memory database named after the test so
// every connection in gorm's pool sees the same tables.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigratesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"profiles", "cards", "contents", "content_views", "placements", "events"} {
		var name string
		err := s.DB().Raw(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name).Error
		require.NoError(t, err)
		require.Equal(t, table, name)
	}
}

func sampleProfile(userID string) *learner.Profile {
	p := learner.NewProfile(userID, "japanese")
	p.AbilityEstimate = 0.8
	p.AbilityConfidence = 0.5
	p.AbilityBySkill[learner.SkillGrammar] = 0.6
	p.Skills[learner.SkillGrammar] = 62
	p.TotalStudyMinutes = 120
	p.InterestWeights["travel"] = 0.4
	p.WeakAreas = []learner.WeakArea{{
		Skill:         learner.SkillGrammar,
		Topic:         "particles",
		Score:         41,
		LastTestedAt:  time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		QuestionCount: 3,
	}}
	p.VocabCoverage = learner.VocabCoverage{
		TargetLevel: "N4",
		TotalWords:  1500,
		Known:       300,
		Learning:    120,
		Unknown:     1080,
	}
	p.Engagement = learner.EngagementStats{
		AvgDwellMs:     42000,
		CompletionRate: 0.7,
		SampleCount:    9,
	}
	p.Calibration.RecentAccuracy = 0.72
	p.Calibration.LastAdjustAt = time.Date(2026, 2, 12, 18, 30, 0, 0, time.UTC)
	return p
}

func TestProfileGetAbsent(t *testing.T) {
	s := openTestStore(t)

	p, version, err := s.ProfileRepo().Get(context.Background(), "nobody", "japanese")
	require.NoError(t, err)
	require.Nil(t, p)
	require.Zero(t, version)
}

func TestProfileSaveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProfileRepo()
	ctx := context.Background()

	want := sampleProfile("u1")
	version, err := repo.Save(ctx, want, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, version)

	got, gotVersion, err := repo.Get(ctx, "u1", "japanese")
	require.NoError(t, err)
	require.EqualValues(t, 1, gotVersion)
	require.Equal(t, want, got)

	// A second save bumps the version and persists the change.
	got.AbilityEstimate = 1.1
	got.Skills[learner.SkillReading] = 70
	version, err = repo.Save(ctx, got, gotVersion)
	require.NoError(t, err)
	require.EqualValues(t, 2, version)

	again, againVersion, err := repo.Get(ctx, "u1", "japanese")
	require.NoError(t, err)
	require.EqualValues(t, 2, againVersion)
	require.Equal(t, 1.1, again.AbilityEstimate)
	require.Equal(t, 70, again.Skills[learner.SkillReading])
}

func TestProfileStaleSaveConflicts(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProfileRepo()
	ctx := context.Background()

	p := sampleProfile("u1")
	_, err := repo.Save(ctx, p, 0)
	require.NoError(t, err)

	// Two readers at version 1; the second writer loses.
	first, v1, err := repo.Get(ctx, "u1", "japanese")
	require.NoError(t, err)
	second, _, err := repo.Get(ctx, "u1", "japanese")
	require.NoError(t, err)

	_, err = repo.Save(ctx, first, v1)
	require.NoError(t, err)

	_, err = repo.Save(ctx, second, v1)
	var conflict *ErrVersionConflict
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "u1", conflict.UserID)
	require.EqualValues(t, v1, conflict.Expected)
}

func TestProfileCreateRaceConflicts(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProfileRepo()
	ctx := context.Background()

	_, err := repo.Save(ctx, sampleProfile("u1"), 0)
	require.NoError(t, err)

	// A second create for the same (user, language) hits the unique index.
	_, err = repo.Save(ctx, sampleProfile("u1"), 0)
	var conflict *ErrVersionConflict
	require.ErrorAs(t, err, &conflict)
}

func TestProfilesIndependentPerLanguage(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProfileRepo()
	ctx := context.Background()

	ja := sampleProfile("u1")
	ko := learner.NewProfile("u1", "korean")
	_, err := repo.Save(ctx, ja, 0)
	require.NoError(t, err)
	_, err = repo.Save(ctx, ko, 0)
	require.NoError(t, err)

	got, _, err := repo.Get(ctx, "u1", "korean")
	require.NoError(t, err)
	require.Equal(t, "korean", got.Language)
	require.Zero(t, got.AbilityEstimate)
}

func TestCardSaveGetUpsert(t *testing.T) {
	s := openTestStore(t)
	repo := s.CardRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	got, err := repo.Get(ctx, "u1", "食べる")
	require.NoError(t, err)
	require.Nil(t, got)

	card := memory.Card{
		ItemID:     "食べる",
		Difficulty: 5.2,
		Stability:  3.4,
		Reps:       1,
		LastReview: now,
		Due:        now.AddDate(0, 0, 3),
	}
	require.NoError(t, repo.Save(ctx, "u1", "japanese", card))

	got, err = repo.Get(ctx, "u1", "食べる")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, card.Difficulty, got.Difficulty)
	require.Equal(t, card.Stability, got.Stability)
	require.Equal(t, 1, got.Reps)
	require.True(t, got.Due.Equal(card.Due))
	require.True(t, got.LastReview.Equal(now))

	// Saving again updates in place instead of inserting a second row.
	card.Reps = 2
	card.Stability = 8.1
	require.NoError(t, repo.Save(ctx, "u1", "japanese", card))

	got, err = repo.Get(ctx, "u1", "食べる")
	require.NoError(t, err)
	require.Equal(t, 2, got.Reps)
	require.Equal(t, 8.1, got.Stability)

	var count int64
	require.NoError(t, s.DB().Model(&CardRecord{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCardUnreviewedHasNoLastReview(t *testing.T) {
	s := openTestStore(t)
	repo := s.CardRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, "u1", "japanese", memory.NewCard("新しい", now)))

	got, err := repo.Get(ctx, "u1", "新しい")
	require.NoError(t, err)
	require.True(t, got.LastReview.IsZero())
	require.False(t, got.Reviewed())
}

func TestCardSeedSkipsExisting(t *testing.T) {
	s := openTestStore(t)
	repo := s.CardRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	reviewed := memory.Card{ItemID: "犬", Stability: 12, Reps: 4, LastReview: now, Due: now.AddDate(0, 0, 10)}
	require.NoError(t, repo.Save(ctx, "u1", "japanese", reviewed))

	require.NoError(t, repo.Seed(ctx, "u1", "japanese", []memory.Card{
		memory.NewCard("犬", now),
		memory.NewCard("猫", now),
	}))
	require.NoError(t, repo.Seed(ctx, "u1", "japanese", nil))

	// The reviewed card keeps its progress; only the new one was inserted.
	got, err := repo.Get(ctx, "u1", "犬")
	require.NoError(t, err)
	require.Equal(t, 4, got.Reps)
	require.Equal(t, 12.0, got.Stability)

	got, err = repo.Get(ctx, "u1", "猫")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Zero(t, got.Reps)
}

func TestProfileKeys(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProfileRepo()
	ctx := context.Background()

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)

	_, err = repo.Save(ctx, sampleProfile("u2"), 0)
	require.NoError(t, err)
	_, err = repo.Save(ctx, sampleProfile("u1"), 0)
	require.NoError(t, err)
	_, err = repo.Save(ctx, learner.NewProfile("u1", "korean"), 0)
	require.NoError(t, err)

	keys, err = repo.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []ProfileKey{
		{UserID: "u1", Language: "japanese"},
		{UserID: "u1", Language: "korean"},
		{UserID: "u2", Language: "japanese"},
	}, keys)
}

func TestCardDueOrdering(t *testing.T) {
	s := openTestStore(t)
	repo := s.CardRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	save := func(itemID string, due time.Time) {
		t.Helper()
		c := memory.NewCard(itemID, now)
		c.Due = due
		require.NoError(t, repo.Save(ctx, "u1", "japanese", c))
	}
	save("oldest", now.AddDate(0, 0, -2))
	save("older", now.AddDate(0, 0, -1))
	save("future", now.AddDate(0, 0, 1))
	// Another user's overdue card must not leak in.
	other := memory.NewCard("oldest", now)
	other.Due = now.AddDate(0, 0, -5)
	require.NoError(t, repo.Save(ctx, "u2", "japanese", other))

	due, err := repo.Due(ctx, "u1", "japanese", now, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, "oldest", due[0].ItemID)
	require.Equal(t, "older", due[1].ItemID)

	limited, err := repo.Due(ctx, "u1", "japanese", now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "oldest", limited[0].ItemID)
}

func TestCardKnownItemsAndStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.CardRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mature := memory.Card{ItemID: "犬", Stability: 30, Reps: 5, LastReview: now, Due: now.AddDate(0, 0, 25)}
	young := memory.Card{ItemID: "猫", Stability: 5, Reps: 2, LastReview: now, Due: now.AddDate(0, 0, 4)}
	fresh := memory.NewCard("鳥", now)
	require.NoError(t, repo.Save(ctx, "u1", "japanese", mature))
	require.NoError(t, repo.Save(ctx, "u1", "japanese", young))
	require.NoError(t, repo.Save(ctx, "u1", "japanese", fresh))

	known, err := repo.KnownItems(ctx, "u1", "japanese", 21)
	require.NoError(t, err)
	require.Equal(t, []string{"犬"}, known)

	stats, err := repo.Stats(ctx, "u1", "japanese", 21)
	require.NoError(t, err)
	require.Equal(t, CardStats{Total: 3, Reviewed: 2, Mature: 1}, stats)
}

func sampleContent(id, language, contentType string) *ContentRecord {
	return &ContentRecord{
		ID:          id,
		Language:    language,
		ContentType: contentType,
		Title:       "朝のコーヒー",
		Body:        "毎朝、コーヒーを飲みます。",
		WordCount:   12,
		Difficulty:  0.3,
		Level:       "N4",
		Source:      "generated",
		Model:       "mock",
	}
}

func TestContentCreateGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.ContentRepo()
	ctx := context.Background()

	got, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, got)

	rec := sampleContent("c1", "japanese", "story")
	require.NoError(t, repo.Create(ctx, rec))

	got, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "朝のコーヒー", got.Title)
	require.Equal(t, 0.3, got.Difficulty)
}

func TestContentReusableFiltersAndExcludesViewed(t *testing.T) {
	s := openTestStore(t)
	repo := s.ContentRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, sampleContent("seen", "japanese", "story")))
	require.NoError(t, repo.Create(ctx, sampleContent("unseen", "japanese", "story")))
	require.NoError(t, repo.Create(ctx, sampleContent("wrong-type", "japanese", "article")))
	require.NoError(t, repo.Create(ctx, sampleContent("wrong-lang", "korean", "story")))

	require.NoError(t, repo.RecordView(ctx, "seen", "u1", now.AddDate(0, 0, -2)))

	q := ReuseQuery{
		UserID:      "u1",
		Language:    "japanese",
		ContentType: "story",
		ViewedSince: now.AddDate(0, 0, -30),
		Limit:       10,
	}
	recs, err := repo.Reusable(ctx, q)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "unseen", recs[0].ID)

	// A view older than the window no longer blocks reuse.
	q.ViewedSince = now.AddDate(0, 0, -1)
	recs, err = repo.Reusable(ctx, q)
	require.NoError(t, err)
	ids := []string{recs[0].ID, recs[1].ID}
	require.ElementsMatch(t, []string{"seen", "unseen"}, ids)

	// Someone else's views never block this learner.
	recs, err = repo.Reusable(ctx, ReuseQuery{
		UserID: "u2", Language: "japanese", ContentType: "story",
		ViewedSince: now.AddDate(0, 0, -30), Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestContentCompletionAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.ContentRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, sampleContent("c1", "japanese", "story")))
	require.NoError(t, repo.RecordView(ctx, "c1", "u1", now))
	require.NoError(t, repo.RecordCompletion(ctx, "c1", "u1", 80, now))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 1, got.ViewCount)
	require.Equal(t, 1, got.CompletedCount)
	require.Equal(t, 1, got.ScoreCount)
	require.Equal(t, 80.0, got.AvgScore)

	// A second score on an already-completed view folds into the average
	// without recounting the completion.
	require.NoError(t, repo.RecordCompletion(ctx, "c1", "u1", 60, now.Add(time.Hour)))
	got, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 1, got.CompletedCount)
	require.Equal(t, 2, got.ScoreCount)
	require.Equal(t, 70.0, got.AvgScore)

	// Completion from a learner with no recorded view logs the exposure.
	require.NoError(t, repo.RecordCompletion(ctx, "c1", "u2", 100, now.Add(2*time.Hour)))
	got, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 2, got.ViewCount)
	require.Equal(t, 2, got.CompletedCount)
	require.Equal(t, 3, got.ScoreCount)
	require.Equal(t, 80.0, got.AvgScore)
}

func TestContentReconcileStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.ContentRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, sampleContent("c1", "japanese", "story")))
	require.NoError(t, repo.RecordView(ctx, "c1", "u1", now))
	require.NoError(t, repo.RecordCompletion(ctx, "c1", "u1", 90, now))
	require.NoError(t, repo.RecordView(ctx, "c1", "u2", now))

	// Skew the aggregates, then rebuild them from the view log.
	err := s.DB().Model(&ContentRecord{}).Where("id = ?", "c1").
		UpdateColumns(map[string]any{
			"view_count": 99, "completed_count": 99, "score_count": 99, "avg_score": 1.0,
		}).Error
	require.NoError(t, err)

	touched, err := repo.ReconcileStats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, touched)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, 2, got.ViewCount)
	require.Equal(t, 1, got.CompletedCount)
	require.Equal(t, 1, got.ScoreCount)
	require.Equal(t, 90.0, got.AvgScore)
}

func samplePlacement(id string, now time.Time) *placement.Test {
	test := placement.NewTest(id, "u1", "japanese", now)
	answer := "tokyo"
	correct := true
	test.Status = placement.InProgress
	test.AbilityEstimate = 0.4
	test.AbilityStandardError = 1.1
	test.Questions = []placement.Question{{
		Skill:         learner.SkillVocabulary,
		Difficulty:    0.3,
		Prompt:        "「東京」の読み方は？",
		Choices:       []string{"tokyo", "kyoto"},
		CorrectAnswer: "tokyo",
		UserAnswer:    &answer,
		IsCorrect:     &correct,
		AskedAt:       now,
	}}
	return test
}

func TestPlacementCreateGetUpdate(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlacementRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	got, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	require.Nil(t, got)

	test := samplePlacement("p1", now)
	require.NoError(t, repo.Create(ctx, test))

	got, err = repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, test, got)

	done := now.Add(10 * time.Minute)
	got.Status = placement.Completed
	got.DeterminedLevel = "N3"
	got.Confidence = 85
	got.CompletedAt = &done
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, placement.Completed, again.Status)
	require.Equal(t, "N3", again.DeterminedLevel)
	require.NotNil(t, again.CompletedAt)

	var status string
	require.NoError(t, s.DB().Model(&PlacementRecord{}).
		Where("id = ?", "p1").Pluck("status", &status).Error)
	require.Equal(t, "completed", status)
}

func TestPlacementUpdateUnknownID(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := s.PlacementRepo().Update(context.Background(), samplePlacement("ghost", now))
	require.Error(t, err)
}

func TestPlacementExpireStale(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlacementRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	stale := samplePlacement("stale", now.AddDate(0, 0, -3))
	fresh := samplePlacement("fresh", now)
	finished := samplePlacement("finished", now.AddDate(0, 0, -3))
	finished.Status = placement.Completed
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, finished))

	// Backdate activity on the stale test; creation stamped all of them now.
	err := s.DB().Model(&PlacementRecord{}).Where("id = ?", "stale").
		UpdateColumn("updated_at", now.AddDate(0, 0, -3)).Error
	require.NoError(t, err)

	expired, err := repo.ExpireStale(ctx, now.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.EqualValues(t, 1, expired)

	got, err := repo.Get(ctx, "stale")
	require.NoError(t, err)
	require.Equal(t, placement.Abandoned, got.Status)

	got, err = repo.Get(ctx, "fresh")
	require.NoError(t, err)
	require.Equal(t, placement.InProgress, got.Status)

	got, err = repo.Get(ctx, "finished")
	require.NoError(t, err)
	require.Equal(t, placement.Completed, got.Status)
}

func TestEventLLMRequestTotals(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "content-gen",
		InputTokens: 900, OutputTokens: 400, LatencyMs: 1200, Success: true,
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "content-gen",
		InputTokens: 900, LatencyMs: 300, Success: false, ErrorMessage: "rate limited",
	}))

	totals, err := repo.LLMTotals(ctx, time.Time{})
	require.NoError(t, err)
	require.Equal(t, LLMTotals{
		Requests:     2,
		Failures:     1,
		InputTokens:  1800,
		OutputTokens: 400,
	}, totals)

	// A window in the future matches nothing.
	totals, err = repo.LLMTotals(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, totals.Requests)
}

func TestEventAppendAndCountByType(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, EventReview, "u1", map[string]any{"item_id": "犬", "rating": "good"}))
	require.NoError(t, repo.Append(ctx, EventReview, "u1", map[string]any{"item_id": "猫", "rating": "again"}))
	require.NoError(t, repo.Append(ctx, EventInteraction, "u1", nil))

	counts, err := repo.CountByType(ctx, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 2, counts[EventReview])
	require.EqualValues(t, 1, counts[EventInteraction])
}

func TestEventQueryLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "content-gen",
			InputTokens: 100 + i, OutputTokens: 50, LatencyMs: 400, Success: true,
		}))
	}
	// Domain events never show up in the LLM query.
	require.NoError(t, repo.Append(ctx, EventReview, "u1", nil))

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	// Newest first.
	require.Equal(t, 102, events[0].InputTokens)
	require.Equal(t, 100, events[2].InputTokens)

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, 102, limited[0].InputTokens)

	older, err := repo.QueryLLMEvents(ctx, QueryOpts{Before: events[0].ID})
	require.NoError(t, err)
	require.Len(t, older, 2)
}

func TestEventGetLLMEvent(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "openai", Model: "gpt-4o-mini", Purpose: "grading",
		InputTokens: 300, OutputTokens: 20, LatencyMs: 800, Success: true,
		RequestBody: `{"prompt":"grade"}`, ResponseBody: `{"clarity":90}`,
	}))
	require.NoError(t, repo.Append(ctx, EventReview, "u1", nil))

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	got, err := repo.GetLLMEvent(ctx, events[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "grading", got.Purpose)
	require.Equal(t, `{"prompt":"grade"}`, got.RequestBody)

	// The review event sits at the next ID but is not an LLM event.
	missing, err := repo.GetLLMEvent(ctx, events[0].ID+1)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestEventLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "content-gen",
		InputTokens: 1000, OutputTokens: 500, LatencyMs: 1000, Success: true,
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "content-gen",
		InputTokens: 1000, OutputTokens: 500, LatencyMs: 3000, Success: true,
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "openai", Model: "gpt-4o-mini", Purpose: "grading",
		InputTokens: 200, OutputTokens: 30, LatencyMs: 500, Success: true,
	}))

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	require.Equal(t, LLMUsageStats{
		Purpose: "content-gen", Calls: 2,
		InputTokens: 2000, OutputTokens: 1000, AvgLatencyMs: 2000,
	}, byPurpose[0])
	require.Equal(t, "grading", byPurpose[1].Purpose)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	require.Equal(t, "gemini-2.0-flash", byModel[0].Model)
	require.EqualValues(t, 2, byModel[0].Calls)
}

func TestPurgeUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.ProfileRepo().Save(ctx, sampleProfile("u1"), 0)
	require.NoError(t, err)
	_, err = s.ProfileRepo().Save(ctx, sampleProfile("u2"), 0)
	require.NoError(t, err)
	require.NoError(t, s.CardRepo().Save(ctx, "u1", "japanese", memory.NewCard("犬", now)))
	require.NoError(t, s.CardRepo().Save(ctx, "u2", "japanese", memory.NewCard("犬", now)))
	require.NoError(t, s.PlacementRepo().Create(ctx, samplePlacement("p1", now)))
	require.NoError(t, s.ContentRepo().Create(ctx, sampleContent("c1", "japanese", "story")))
	require.NoError(t, s.ContentRepo().RecordView(ctx, "c1", "u1", now))

	res, err := s.PurgeUser(ctx, "u1", "")
	require.NoError(t, err)
	require.Equal(t, PurgeResult{Profiles: 1, Cards: 1, Placements: 1, Views: 1}, res)

	p, _, err := s.ProfileRepo().Get(ctx, "u1", "japanese")
	require.NoError(t, err)
	require.Nil(t, p)

	// The other learner and the shared content are untouched.
	p, _, err = s.ProfileRepo().Get(ctx, "u2", "japanese")
	require.NoError(t, err)
	require.NotNil(t, p)
	rec, err := s.ContentRepo().Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestPurgeUserSingleLanguage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.ProfileRepo().Save(ctx, sampleProfile("u1"), 0)
	require.NoError(t, err)
	_, err = s.ProfileRepo().Save(ctx, learner.NewProfile("u1", "korean"), 0)
	require.NoError(t, err)
	require.NoError(t, s.CardRepo().Save(ctx, "u1", "japanese", memory.NewCard("犬", now)))
	require.NoError(t, s.CardRepo().Save(ctx, "u1", "korean", memory.NewCard("개", now)))

	res, err := s.PurgeUser(ctx, "u1", "japanese")
	require.NoError(t, err)
	require.Equal(t, PurgeResult{Profiles: 1, Cards: 1}, res)

	p, _, err := s.ProfileRepo().Get(ctx, "u1", "korean")
	require.NoError(t, err)
	require.NotNil(t, p)
	card, err := s.CardRepo().Get(ctx, "u1", "개")
	require.NoError(t, err)
	require.NotNil(t, card)
}

func TestVersionConflictErrorMessage(t *testing.T) {
	err := &ErrVersionConflict{UserID: "u1", Language: "japanese", Expected: 4}
	require.Contains(t, err.Error(), "u1/japanese")
	require.Contains(t, err.Error(), "4")
}
