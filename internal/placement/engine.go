package placement

import (
	"fmt"
	"strings"
	"time"

	"github.com/sohta/kotoba/internal/learner"
)

// defaultTerminationSE is the standard-error threshold at which the
// estimate is considered settled; the confidence display maps it to 100%.
const defaultTerminationSE = 0.4

// Config bounds the adaptive loop. Zero values produce defaults.
type Config struct {
	MinQuestions  int     `json:"min_questions"`  // zero → 5
	MaxQuestions  int     `json:"max_questions"`  // zero → 15
	TerminationSE float64 `json:"termination_se"` // zero → 0.4
}

func (c Config) withDefaults() Config {
	if c.MinQuestions == 0 {
		c.MinQuestions = 5
	}
	if c.MaxQuestions == 0 {
		c.MaxQuestions = 15
	}
	if c.TerminationSE == 0 {
		c.TerminationSE = defaultTerminationSE
	}
	return c
}

// Engine drives placement tests: pick the next probe, grade answers,
// decide when to stop. It holds only configuration; all test state moves
// through the Test values.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine, filling zero config fields with defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Probe tells the caller what to ask next.
type Probe struct {
	TargetDifficulty  float64       `json:"target_difficulty"`
	SuggestedType     learner.Skill `json:"suggested_type"`
	ShouldContinue    bool          `json:"should_continue"`
	ConfidencePercent float64       `json:"confidence_percent"`
}

// NextProbe picks the next question target: difficulty slightly above
// the current estimate (maximum information plus the i+1 bias) and the
// least-covered testable skill.
func (e *Engine) NextProbe(t *Test) Probe {
	p := Probe{
		TargetDifficulty:  clamp(t.AbilityEstimate+learner.IPlusOneNudge, learner.AbilityMin, learner.AbilityMax),
		SuggestedType:     e.nextSkill(t),
		ConfidencePercent: ConfidencePercent(t.AbilityStandardError),
	}
	p.ShouldContinue = e.shouldContinue(t)
	return p
}

// RegisterQuestion records a probe the caller actually asked and moves a
// fresh test to InProgress. Terminal tests accept no more questions.
func (e *Engine) RegisterQuestion(t *Test, q Question) (*Test, error) {
	if t.Status.Terminal() {
		return nil, ErrTestFinished
	}
	out := t.Clone()
	if out.Status == AwaitingFirstQuestion {
		out.Status = InProgress
	}
	out.Questions = append(out.Questions, q)
	return out, nil
}

// SubmitAnswer grades the learner's answer to one question, updates the
// ability estimate through the shared IRT primitive, and completes the
// test once the stop rule fires.
func (e *Engine) SubmitAnswer(t *Test, questionIndex int, answer string, now time.Time) (*Test, bool, error) {
	if t.Status.Terminal() {
		return nil, false, ErrTestFinished
	}
	if questionIndex < 0 || questionIndex >= len(t.Questions) {
		return nil, false, fmt.Errorf("%w: %d of %d", ErrQuestionIndex, questionIndex, len(t.Questions))
	}
	if t.Questions[questionIndex].Answered() {
		return nil, false, fmt.Errorf("%w: %d", ErrAlreadyAnswered, questionIndex)
	}

	out := t.Clone()
	q := &out.Questions[questionIndex]

	correct := gradeAnswer(q.CorrectAnswer, answer)
	q.UserAnswer = &answer
	q.IsCorrect = &correct

	outcome := 0.0
	if correct {
		outcome = 1.0
	}
	rate := learner.LearningRate(out.AbilityStandardError)
	out.AbilityEstimate = learner.UpdateAbility(out.AbilityEstimate, q.Difficulty, outcome, rate)
	out.AbilityStandardError = learner.DecayConfidence(out.AbilityStandardError, 1)

	if !e.shouldContinue(out) {
		e.complete(out, now, true)
	}
	return out, correct, nil
}

// Complete finishes the test immediately. applyNudge applies the i+1
// upward nudge before level bucketing; admin overrides that want the raw
// estimate stored pass false.
func (e *Engine) Complete(t *Test, now time.Time, applyNudge bool) (*Test, error) {
	if t.Status.Terminal() {
		return nil, ErrTestFinished
	}
	out := t.Clone()
	e.complete(out, now, applyNudge)
	return out, nil
}

func (e *Engine) complete(t *Test, now time.Time, applyNudge bool) {
	ability := t.AbilityEstimate
	if applyNudge {
		ability += learner.IPlusOneNudge
	}
	t.DeterminedLevel = ScaleFor(t.Language).LevelFor(ability)
	t.Confidence = ConfidencePercent(t.AbilityStandardError)
	t.Status = Completed
	done := now
	t.CompletedAt = &done
}

// shouldContinue implements the stop rule: never stop before the
// minimum, always stop at the maximum, otherwise stop once the standard
// error reaches the termination threshold.
func (e *Engine) shouldContinue(t *Test) bool {
	answered := t.AnsweredCount()
	if answered < e.cfg.MinQuestions {
		return true
	}
	if answered >= e.cfg.MaxQuestions {
		return false
	}
	return t.AbilityStandardError > e.cfg.TerminationSE
}

// nextSkill balances coverage across the testable skills by suggesting
// the one asked least so far.
func (e *Engine) nextSkill(t *Test) learner.Skill {
	counts := make(map[learner.Skill]int)
	for _, q := range t.Questions {
		counts[q.Skill]++
	}
	best := learner.SkillVocabulary
	bestCount := int(^uint(0) >> 1)
	for _, s := range learner.CoreSkills() {
		if counts[s] < bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}

// ConfidencePercent maps the standard error onto a 0-100 display scale:
// the starting SE (1.5) reads as 0% and the termination threshold (0.4)
// as 100%.
func ConfidencePercent(standardError float64) float64 {
	return clamp(100*(InitialStandardError-standardError)/(InitialStandardError-defaultTerminationSE), 0, 100)
}

// gradeAnswer compares answers ignoring case and surrounding space.
func gradeAnswer(correct, given string) bool {
	return strings.EqualFold(strings.TrimSpace(correct), strings.TrimSpace(given))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
