package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sohta/kotoba/internal/engine"
	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/memory"
	"github.com/sohta/kotoba/internal/placement"
	"github.com/sohta/kotoba/internal/selector"
)

// Wire DTOs. The HTTP surface speaks camelCase; conversions to and from
// the domain types are total so nothing is lost at the boundary.

type skillWeightBody struct {
	Skill  string  `json:"skill"`
	Weight float64 `json:"weight"`
}

type engagementBody struct {
	DwellMs   int      `json:"dwellMs"`
	WordCount int      `json:"wordCount"`
	Replays   int      `json:"replays"`
	Skips     int      `json:"skips"`
	Rating    float64  `json:"rating"`
	TopicTags []string `json:"topicTags"`
	Completed bool     `json:"completed"`
}

type interactionBody struct {
	UserID             string            `json:"userId"`
	Language           string            `json:"language"`
	ContentID          string            `json:"contentId"`
	SkillsTested       []skillWeightBody `json:"skillsTested"`
	Score              int               `json:"score"`
	DifficultyEstimate float64           `json:"difficultyEstimate"`
	DurationMinutes    float64           `json:"durationMinutes"`
	Engagement         *engagementBody   `json:"engagement"`
}

func (b interactionBody) toRequest() (engine.InteractionRequest, error) {
	skills := make([]learner.SkillWeight, 0, len(b.SkillsTested))
	for _, sw := range b.SkillsTested {
		skill, ok := learner.ParseSkill(sw.Skill)
		if !ok {
			return engine.InteractionRequest{}, fmt.Errorf("unknown skill %q", sw.Skill)
		}
		skills = append(skills, learner.SkillWeight{Skill: skill, Weight: sw.Weight})
	}

	in := learner.Interaction{
		SkillsTested:    skills,
		Score:           b.Score,
		Difficulty:      b.DifficultyEstimate,
		DurationMinutes: b.DurationMinutes,
	}
	if b.Engagement != nil {
		in.Engagement = &learner.EngagementSignal{
			DwellMs:   b.Engagement.DwellMs,
			WordCount: b.Engagement.WordCount,
			Replays:   b.Engagement.Replays,
			Skips:     b.Engagement.Skips,
			Rating:    b.Engagement.Rating,
			TopicTags: b.Engagement.TopicTags,
			Completed: b.Engagement.Completed,
		}
	}
	return engine.InteractionRequest{
		UserID:      b.UserID,
		Language:    b.Language,
		ContentID:   b.ContentID,
		Interaction: in,
	}, nil
}

type weakAreaView struct {
	Skill string `json:"skill"`
	Topic string `json:"topic,omitempty"`
	Score int    `json:"score"`
}

type coverageView struct {
	TargetLevel string  `json:"targetLevel,omitempty"`
	TotalWords  int     `json:"totalWords"`
	Known       int     `json:"known"`
	Learning    int     `json:"learning"`
	Unknown     int     `json:"unknown"`
	Percent     float64 `json:"percent"`
}

type readinessView struct {
	Level      string  `json:"level"`
	Confidence float64 `json:"confidence"`
}

type profileView struct {
	UserID              string         `json:"userId"`
	Language            string         `json:"language"`
	AbilityEstimate     float64        `json:"abilityEstimate"`
	AbilityConfidence   float64        `json:"abilityConfidence"`
	Skills              map[string]int `json:"skills"`
	WeakAreas           []weakAreaView `json:"weakAreas,omitempty"`
	VocabCoverage       coverageView   `json:"vocabCoverage"`
	Readiness           readinessView  `json:"readiness"`
	TopInterests        []string       `json:"topInterests,omitempty"`
	SuggestedDifficulty float64        `json:"suggestedDifficulty"`
	TotalStudyMinutes   float64        `json:"totalStudyMinutes"`
}

func profileViewFrom(p *learner.Profile) profileView {
	skills := make(map[string]int, len(p.Skills))
	for s, score := range p.Skills {
		skills[s.String()] = score
	}
	weak := make([]weakAreaView, 0, len(p.WeakAreas))
	for _, w := range p.WeakAreas {
		weak = append(weak, weakAreaView{Skill: w.Skill.String(), Topic: w.Topic, Score: w.Score})
	}
	return profileView{
		UserID:            p.UserID,
		Language:          p.Language,
		AbilityEstimate:   p.AbilityEstimate,
		AbilityConfidence: p.AbilityConfidence,
		Skills:            skills,
		WeakAreas:         weak,
		VocabCoverage: coverageView{
			TargetLevel: p.VocabCoverage.TargetLevel,
			TotalWords:  p.VocabCoverage.TotalWords,
			Known:       p.VocabCoverage.Known,
			Learning:    p.VocabCoverage.Learning,
			Unknown:     p.VocabCoverage.Unknown,
			Percent:     p.VocabCoverage.Percent(),
		},
		Readiness: readinessView{
			Level:      p.Readiness.Level.String(),
			Confidence: p.Readiness.Confidence,
		},
		TopInterests:        learner.TopInterests(p.InterestWeights, 5),
		SuggestedDifficulty: p.SuggestedDifficulty(),
		TotalStudyMinutes:   p.TotalStudyMinutes,
	}
}

type vocabEntryView struct {
	Word    string `json:"word"`
	Reading string `json:"reading,omitempty"`
	Meaning string `json:"meaning"`
	Level   string `json:"level,omitempty"`
}

type contentView struct {
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Translation string           `json:"translation,omitempty"`
	Vocabulary  []vocabEntryView `json:"vocabulary,omitempty"`
	GrammarTags []string         `json:"grammarTags,omitempty"`
	TopicTags   []string         `json:"topicTags,omitempty"`
	WordCount   int              `json:"wordCount"`
}

func contentViewFrom(c selector.Content) contentView {
	vocab := make([]vocabEntryView, 0, len(c.Vocabulary))
	for _, v := range c.Vocabulary {
		vocab = append(vocab, vocabEntryView(v))
	}
	return contentView{
		Title:       c.Title,
		Body:        c.Body,
		Translation: c.Translation,
		Vocabulary:  vocab,
		GrammarTags: c.GrammarTags,
		TopicTags:   c.TopicTags,
		WordCount:   c.WordCount,
	}
}

type cardView struct {
	ItemID     string     `json:"itemId"`
	Difficulty float64    `json:"difficulty"`
	Stability  float64    `json:"stability"`
	Reps       int        `json:"reps"`
	Lapses     int        `json:"lapses"`
	LastReview *time.Time `json:"lastReview,omitempty"`
	Due        time.Time  `json:"due"`
}

func cardViewFrom(c memory.Card) cardView {
	v := cardView{
		ItemID:     c.ItemID,
		Difficulty: c.Difficulty,
		Stability:  c.Stability,
		Reps:       c.Reps,
		Lapses:     c.Lapses,
		Due:        c.Due,
	}
	if !c.LastReview.IsZero() {
		t := c.LastReview
		v.LastReview = &t
	}
	return v
}

type testView struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	Language             string     `json:"language"`
	Status               string     `json:"status"`
	AbilityEstimate      float64    `json:"abilityEstimate"`
	AbilityStandardError float64    `json:"abilityStandardError"`
	AskedCount           int        `json:"askedCount"`
	AnsweredCount        int        `json:"answeredCount"`
	DeterminedLevel      string     `json:"determinedLevel,omitempty"`
	Confidence           float64    `json:"confidence"`
	StartedAt            time.Time  `json:"startedAt"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
}

func testViewFrom(t *placement.Test) testView {
	return testView{
		ID:                   t.ID,
		UserID:               t.UserID,
		Language:             t.Language,
		Status:               t.Status.String(),
		AbilityEstimate:      t.AbilityEstimate,
		AbilityStandardError: t.AbilityStandardError,
		AskedCount:           len(t.Questions),
		AnsweredCount:        t.AnsweredCount(),
		DeterminedLevel:      t.DeterminedLevel,
		Confidence:           t.Confidence,
		StartedAt:            t.StartedAt,
		CompletedAt:          t.CompletedAt,
	}
}

func (s *Server) submitInteraction(c *gin.Context) {
	var body interactionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	res, err := s.eng.SubmitInteraction(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"profile": profileViewFrom(res.Profile),
		"summary": res.Summary,
	})
}

func (s *Server) getProfile(c *gin.Context) {
	userID := c.Param("userId")
	language := c.Query("language")
	if language == "" {
		respondBadRequest(c, fmt.Errorf("language query parameter is required"))
		return
	}

	p, err := s.eng.GetProfile(c.Request.Context(), userID, language)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, profileViewFrom(p))
}

func (s *Server) requestContent(c *gin.Context) {
	var req engine.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	res, err := s.eng.RequestContent(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"contentId":   res.ContentID,
		"contentType": res.ContentType,
		"contentUrl":  res.ContentURL,
		"language":    res.Language,
		"source":      res.Source,
		"content":     contentViewFrom(res.Content),
		"runId":       res.RunID,
		"model":       res.Model,
		"attempts":    res.Attempts,
	})
}

func (s *Server) getContent(c *gin.Context) {
	item, err := s.eng.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"contentId":   item.ContentID,
		"contentType": item.ContentType,
		"language":    item.Language,
		"content":     contentViewFrom(item.Content),
		"difficulty":  item.Difficulty,
		"level":       item.Level,
		"source":      item.Source,
		"createdAt":   item.CreatedAt,
	})
}

type reviewBody struct {
	UserID             string  `json:"userId"`
	Language           string  `json:"language"`
	ItemID             string  `json:"itemId"`
	Rating             string  `json:"rating"`
	RequestedRetention float64 `json:"requestedRetention"`
}

func (s *Server) submitReview(c *gin.Context) {
	var body reviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, err)
		return
	}
	rating, err := memory.ParseRating(body.Rating)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	res, err := s.eng.SubmitReview(c.Request.Context(), engine.ReviewRequest{
		UserID:             body.UserID,
		Language:           body.Language,
		ItemID:             body.ItemID,
		Rating:             rating,
		RequestedRetention: body.RequestedRetention,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"itemState":     cardViewFrom(res.Card),
		"nextDueAt":     res.Card.Due,
		"scheduledDays": res.Log.ScheduledDays,
	})
}

func (s *Server) listDueReviews(c *gin.Context) {
	userID := c.Query("userId")
	language := c.Query("language")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondBadRequest(c, fmt.Errorf("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	cards, err := s.eng.DueCards(c.Request.Context(), userID, language, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]cardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, cardViewFrom(card))
	}
	respondData(c, http.StatusOK, gin.H{"cards": views, "count": len(views)})
}

type startPlacementBody struct {
	UserID   string `json:"userId"`
	Language string `json:"language"`
}

func (s *Server) startPlacement(c *gin.Context) {
	var body startPlacementBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, err)
		return
	}

	test, err := s.eng.StartPlacement(c.Request.Context(), body.UserID, body.Language)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, testViewFrom(test))
}

func (s *Server) placementNextProbe(c *gin.Context) {
	probe, err := s.eng.PlacementNextProbe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"targetDifficulty":      probe.TargetDifficulty,
		"suggestedQuestionType": probe.SuggestedType.String(),
		"shouldContinue":        probe.ShouldContinue,
		"confidencePercent":     probe.ConfidencePercent,
	})
}

type placementQuestionBody struct {
	Prompt        string   `json:"prompt"`
	Difficulty    float64  `json:"difficulty"`
	Type          string   `json:"type"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type placementAnswerBody struct {
	QuestionIndex int                    `json:"questionIndex"`
	Question      *placementQuestionBody `json:"question"`
	Answer        string                 `json:"answer"`
}

func (s *Server) submitPlacementAnswer(c *gin.Context) {
	var body placementAnswerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, err)
		return
	}

	ans := engine.PlacementAnswer{
		QuestionIndex: body.QuestionIndex,
		Answer:        body.Answer,
	}
	if body.Question != nil {
		skill, ok := learner.ParseSkill(body.Question.Type)
		if !ok {
			respondBadRequest(c, fmt.Errorf("unknown question type %q", body.Question.Type))
			return
		}
		ans.Question = &placement.Question{
			Skill:         skill,
			Difficulty:    body.Question.Difficulty,
			Prompt:        body.Question.Prompt,
			Choices:       body.Question.Choices,
			CorrectAnswer: body.Question.CorrectAnswer,
		}
	}

	res, err := s.eng.SubmitPlacementAnswer(c.Request.Context(), c.Param("id"), ans)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"isCorrect": res.IsCorrect,
		"test":      testViewFrom(res.Test),
	})
}
