package selector

import (
	"fmt"
	"strings"
)

const contentSystemPrompt = `You are a language educator writing graded reading material for learners.

Rules:
- Write the body ONLY in the target language. No translations mixed into the body text.
- Stay strictly within the level guidelines given below. Comprehensible input: the learner should recognize most words and meet a few new ones.
- Use natural, conversational language appropriate for the level. Include dialogue when it fits the content type.
- Reuse key vocabulary within the text for reinforcement.
- List EVERY content word from the body in the vocabulary array, one entry per distinct word, with its level.
- Words from the "must use" list have to appear in the body. Words from the "prefer" list should appear where natural.
- Respect the new-word budget: introduce at most that many words above the learner's level.
- Output must be valid JSON matching the requested schema.`

const gradingSystemPrompt = `You are reviewing graded reading material written for language learners.

Score the content from 0 to 100 for clarity and level-appropriateness:
- Is the text natural and coherent?
- Does it stay within the stated level guidelines?
- Is the vocabulary annotation complete and accurate?
- Would a learner at this level understand it without frustration?

90+ means publish as-is. Below 50 means unusable. Output must be valid JSON matching the requested schema.`

// buildContentPrompt renders a TargetSpec into the generation request.
func buildContentPrompt(spec TargetSpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Language: %s\n", spec.Language)
	fmt.Fprintf(&b, "Content type: %s\n", spec.ContentType)
	fmt.Fprintf(&b, "Level: %s\n", spec.TargetLevel)
	fmt.Fprintf(&b, "Difficulty target: %.2f on a -3..3 scale\n", spec.DifficultyTarget)
	if spec.TargetWordCount > 0 {
		fmt.Fprintf(&b, "Length: about %d words\n", spec.TargetWordCount)
	}
	if spec.VocabBudget > 0 {
		fmt.Fprintf(&b, "New-word budget: at most %d words above the learner's level\n", spec.VocabBudget)
	}
	if spec.BeginnerMode {
		b.WriteString("Beginner mode: short sentences, full translation, readings on every vocabulary entry\n")
	}

	fmt.Fprintf(&b, "\nLevel guidelines:\n%s\n", GuidelinesFor(spec.TargetLevel))

	if len(spec.TopicTags) > 0 {
		fmt.Fprintf(&b, "\nTopics the learner cares about: %s\n", strings.Join(spec.TopicTags, ", "))
	}
	if len(spec.RequiredGrammarTags) > 0 {
		fmt.Fprintf(&b, "Grammar points to exercise: %s\n", strings.Join(spec.RequiredGrammarTags, ", "))
	}
	if len(spec.MustUseWords) > 0 {
		fmt.Fprintf(&b, "Must use these words: %s\n", strings.Join(spec.MustUseWords, ", "))
	}
	if len(spec.PreferWords) > 0 {
		fmt.Fprintf(&b, "Prefer these words where natural: %s\n", strings.Join(spec.PreferWords, ", "))
	}

	b.WriteString("\nWrite the content now as a JSON object.")
	return b.String()
}

// buildGradingPrompt renders generated content into the grading request.
func buildGradingPrompt(spec TargetSpec, content Content) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Language: %s\n", spec.Language)
	fmt.Fprintf(&b, "Stated level: %s\n", spec.TargetLevel)
	fmt.Fprintf(&b, "\nLevel guidelines:\n%s\n", GuidelinesFor(spec.TargetLevel))
	fmt.Fprintf(&b, "\nTitle: %s\n", content.Title)
	fmt.Fprintf(&b, "\nBody:\n%s\n", content.Body)

	if len(content.Vocabulary) > 0 {
		b.WriteString("\nVocabulary annotations:\n")
		for _, v := range content.Vocabulary {
			fmt.Fprintf(&b, "- %s", v.Word)
			if v.Reading != "" {
				fmt.Fprintf(&b, " (%s)", v.Reading)
			}
			fmt.Fprintf(&b, ": %s [%s]\n", v.Meaning, v.Level)
		}
	}

	b.WriteString("\nGrade the content now as a JSON object.")
	return b.String()
}
