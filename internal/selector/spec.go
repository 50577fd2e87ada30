package selector

// TargetSpec tells the generation pipeline exactly what to produce.
// Built by the caller from the learner's profile and request.
type TargetSpec struct {
	// Language of the content body, e.g. "japanese", "spanish".
	Language string `json:"language"`

	// ContentType is the kind of material to produce.
	ContentType ContentType `json:"content_type"`

	// DifficultyTarget is the desired difficulty on the ability scale.
	DifficultyTarget float64 `json:"difficulty_target"`

	// TargetLevel is the proficiency level label (e.g. "N4", "B1") that
	// selects the per-level writing guidelines.
	TargetLevel string `json:"target_level"`

	// VocabBudget caps how many new words the content should introduce.
	VocabBudget int `json:"vocab_budget"`

	// TopicTags steer the subject matter toward the learner's interests.
	TopicTags []string `json:"topic_tags,omitempty"`

	// RequiredGrammarTags name grammar points the content must exercise.
	RequiredGrammarTags []string `json:"required_grammar_tags,omitempty"`

	// MustUseWords must all appear in the body (e.g. due flashcards the
	// learner should re-encounter in context).
	MustUseWords []string `json:"must_use_words,omitempty"`

	// PreferWords should appear where natural.
	PreferWords []string `json:"prefer_words,omitempty"`

	// TargetWordCount is the desired body length; zero means no target.
	TargetWordCount int `json:"target_word_count"`

	// BeginnerMode requests extra scaffolding: shorter sentences, a full
	// translation, readings on every vocabulary entry.
	BeginnerMode bool `json:"beginner_mode"`
}

// levelGuidelines holds per-level writing constraints fed into the
// generation prompt. Japanese levels use JLPT labels, everything else
// CEFR.
var levelGuidelines = map[string]string{
	"N5": `- Use only basic vocabulary (~800 words)
- Simple sentence structures (polite desu/masu form)
- Basic particles only
- Present and past tense only
- Common everyday topics, short simple sentences`,
	"N4": `- Vocabulary up to ~1,500 words
- te-form, nai-form, ta-form
- Basic compound sentences
- Potential and volitional forms, simple conditionals
- Giving/receiving verbs`,
	"N3": `- Vocabulary up to ~3,750 words
- Complex sentence structures
- Passive and causative forms
- Mixed formal/informal registers
- Some idiomatic expressions and abstract concepts`,
	"N2": `- Vocabulary up to ~6,000 words
- Advanced grammar patterns
- Formal written style, complex conditionals
- Nuanced expressions
- Business and academic topics allowed`,
	"N1": `- Full vocabulary range (~10,000+ words)
- Literary and formal expressions
- Sophisticated idioms and complex nested clauses
- Any topic or register`,
	"A1": `- Only the most common everyday vocabulary
- Short declarative sentences in present tense
- Concrete, familiar topics`,
	"A2": `- High-frequency vocabulary, simple connectors
- Present, past and simple future tenses
- Everyday routines and personal topics`,
	"B1": `- Broader vocabulary with some abstract words
- Compound and complex sentences
- All common tenses and moods
- Opinions, experiences, plans`,
	"B2": `- Wide vocabulary including idioms
- Complex argumentation and register shifts
- Hypotheticals and reported speech
- Current affairs and specialist topics`,
	"C1": `- Rich, precise vocabulary with low-frequency words
- Sophisticated discourse structure
- Nuance, implication, stylistic variation`,
	"C2": `- Full native-like range
- Any structure, register, or topic`,
}

// GuidelinesFor returns the writing guidelines for a proficiency level,
// falling back to the most restrictive level of the matching scale when
// the label is unknown.
func GuidelinesFor(level string) string {
	if g, ok := levelGuidelines[level]; ok {
		return g
	}
	if len(level) == 2 && level[0] == 'N' {
		return levelGuidelines["N5"]
	}
	return levelGuidelines["A1"]
}
