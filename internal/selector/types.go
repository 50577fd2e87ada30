package selector

// ContentType identifies the kind of material the selector hands out.
type ContentType string

const (
	TypeStory    ContentType = "story"
	TypeDialogue ContentType = "dialogue"
	TypeArticle  ContentType = "article"
)

// IsValid reports whether t is a known content type.
func (t ContentType) IsValid() bool {
	return t == TypeStory || t == TypeDialogue || t == TypeArticle
}

// VocabEntry is one vocabulary item attached to a piece of content.
type VocabEntry struct {
	// Word as it appears in the content.
	Word string `json:"word"`

	// Reading is the pronunciation guide (kana for Japanese). Empty for
	// languages that don't need one.
	Reading string `json:"reading,omitempty"`

	// Meaning is a short gloss in the learner's native language.
	Meaning string `json:"meaning"`

	// Level is the proficiency level the word belongs to (e.g. "N4", "B1").
	Level string `json:"level,omitempty"`
}

// Content is the learner-facing payload, whether reused or generated.
type Content struct {
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	Translation string       `json:"translation,omitempty"`
	Vocabulary  []VocabEntry `json:"vocabulary,omitempty"`
	GrammarTags []string     `json:"grammar_tags,omitempty"`
	TopicTags   []string     `json:"topic_tags,omitempty"`
	WordCount   int          `json:"word_count"`
}

// Constraints records how a generated candidate measured against its
// target. They are reported, not enforced: a candidate that misses a
// constraint scores lower instead of being discarded.
type Constraints struct {
	// Coverage is the fraction of the candidate's vocabulary the learner
	// already knows. Zero when the candidate carries no vocabulary.
	Coverage float64 `json:"coverage"`

	// NewWordCount is how many vocabulary entries the learner has not
	// seen before.
	NewWordCount int `json:"new_word_count"`

	// GrammarMatch is true when at least one required grammar tag is
	// present, or vacuously true when none were required.
	GrammarMatch bool `json:"grammar_match"`

	// LengthOK is true when the word count landed within tolerance of
	// the target, or vacuously true when no target was set.
	LengthOK bool `json:"length_ok"`
}

// Scores holds the four scoring components, each in [0,1], and their
// weighted total.
type Scores struct {
	DifficultyFit float64 `json:"difficulty_fit"`
	InterestFit   float64 `json:"interest_fit"`
	Clarity       float64 `json:"clarity"`
	Novelty       float64 `json:"novelty"`
	Total         float64 `json:"total"`
}

// Candidate is one scored piece of content under consideration.
type Candidate struct {
	CandidateID string      `json:"candidate_id"`
	Content     Content     `json:"content"`
	Constraints Constraints `json:"constraints"`
	Scores      Scores      `json:"scores"`
}

// Source says where the winning content came from.
type Source string

const (
	SourceReused    Source = "reused"
	SourceGenerated Source = "generated"
)

// Result is the winning candidate plus full provenance. The selector
// persists nothing; the caller stores the result and the content becomes
// a reuse candidate for other learners.
type Result struct {
	Candidate

	Source Source `json:"source"`

	// ContentID is the stored item's ID when Source is reused; empty for
	// generated content until the caller persists it.
	ContentID string `json:"content_id,omitempty"`

	// RunID identifies this selection run.
	RunID string `json:"run_id"`

	// Model is the model that produced the winning content. Empty for
	// reused content.
	Model string `json:"model,omitempty"`

	// Attempts counts model calls made across the generation chain,
	// grading included. Zero for reused content.
	Attempts int `json:"attempts"`

	// GradeFeedback is the grader's one-line assessment of generated
	// content. Empty for reused content.
	GradeFeedback string `json:"grade_feedback,omitempty"`
}
