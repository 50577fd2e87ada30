package placement

import (
	"time"

	"github.com/sohta/kotoba/internal/learner"
)

// InitialStandardError is the uncertainty of a test that has seen no
// answers; the confidence display maps it to 0%.
const InitialStandardError = 1.5

// Question is one probe in a placement test. The correct answer travels
// with the question so grading needs no external lookup.
type Question struct {
	Skill         learner.Skill `json:"skill"`
	Difficulty    float64       `json:"difficulty"`
	Prompt        string        `json:"prompt"`
	Choices       []string      `json:"choices,omitempty"`
	CorrectAnswer string        `json:"correct_answer"`
	UserAnswer    *string       `json:"user_answer,omitempty"`
	IsCorrect     *bool         `json:"is_correct,omitempty"`
	AskedAt       time.Time     `json:"asked_at"`
}

// Answered reports whether the learner has responded to this question.
func (q Question) Answered() bool {
	return q.IsCorrect != nil
}

// Test is the full state of one adaptive placement test.
type Test struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Language string `json:"language"`
	Status   Status `json:"status"`

	AbilityEstimate      float64    `json:"ability_estimate"`
	AbilityStandardError float64    `json:"ability_standard_error"`
	Questions            []Question `json:"questions"`

	DeterminedLevel string     `json:"determined_level,omitempty"`
	Confidence      float64    `json:"confidence,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// NewTest starts a placement test with no information: ability 0 and the
// maximum standard error.
func NewTest(id, userID, language string, now time.Time) *Test {
	return &Test{
		ID:                   id,
		UserID:               userID,
		Language:             language,
		Status:               AwaitingFirstQuestion,
		AbilityEstimate:      0,
		AbilityStandardError: InitialStandardError,
		StartedAt:            now,
	}
}

// Clone returns a deep copy of the test.
func (t *Test) Clone() *Test {
	out := *t
	out.Questions = make([]Question, len(t.Questions))
	copy(out.Questions, t.Questions)
	for i, q := range out.Questions {
		if q.UserAnswer != nil {
			v := *q.UserAnswer
			out.Questions[i].UserAnswer = &v
		}
		if q.IsCorrect != nil {
			v := *q.IsCorrect
			out.Questions[i].IsCorrect = &v
		}
		if q.Choices != nil {
			out.Questions[i].Choices = append([]string(nil), q.Choices...)
		}
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		out.CompletedAt = &v
	}
	return &out
}

// AnsweredCount returns how many questions have been answered.
func (t *Test) AnsweredCount() int {
	n := 0
	for _, q := range t.Questions {
		if q.Answered() {
			n++
		}
	}
	return n
}
