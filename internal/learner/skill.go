package learner

import (
	"encoding"
	"fmt"
)

// Skill identifies one of the tracked language skills.
// The set is closed: profile updates address skills by this type, so an
// unknown skill cannot reach the scoring math. Free-form skill strings are
// filtered at the API boundary via ParseSkill.
type Skill int

const (
	SkillVocabulary Skill = iota + 1
	SkillGrammar
	SkillReading
	SkillListening
	SkillSpeaking
	SkillWriting
)

var (
	skillNames = [...]string{
		SkillVocabulary: "vocabulary",
		SkillGrammar:    "grammar",
		SkillReading:    "reading",
		SkillListening:  "listening",
		SkillSpeaking:   "speaking",
		SkillWriting:    "writing",
	}
	skillByName = map[string]Skill{
		"vocabulary": SkillVocabulary,
		"grammar":    SkillGrammar,
		"reading":    SkillReading,
		"listening":  SkillListening,
		"speaking":   SkillSpeaking,
		"writing":    SkillWriting,
	}
)

// Compile-time interface checks. Text marshaling also covers JSON map keys.
var (
	_ fmt.Stringer             = Skill(0)
	_ encoding.TextMarshaler   = Skill(0)
	_ encoding.TextUnmarshaler = (*Skill)(nil)
)

// AllSkills returns every tracked skill in declaration order.
func AllSkills() []Skill {
	return []Skill{SkillVocabulary, SkillGrammar, SkillReading, SkillListening, SkillSpeaking, SkillWriting}
}

// CoreSkills returns the four skills that feed readiness classification.
func CoreSkills() []Skill {
	return []Skill{SkillVocabulary, SkillGrammar, SkillReading, SkillListening}
}

// ParseSkill maps a wire-format skill name to its Skill value.
// Unknown names return ok=false; callers treat those as per-key no-ops.
func ParseSkill(name string) (Skill, bool) {
	s, ok := skillByName[name]
	return s, ok
}

// IsValid reports whether s is one of the declared skills.
func (s Skill) IsValid() bool {
	return s >= SkillVocabulary && s <= SkillWriting
}

// String returns the wire-format name ("vocabulary", "grammar", ...).
// For invalid values it returns "Skill(n)".
func (s Skill) String() string {
	if s.IsValid() {
		return skillNames[s]
	}
	return fmt.Sprintf("Skill(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Skill) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSkill, int(s))
	}
	return []byte(skillNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Skill) UnmarshalText(text []byte) error {
	v, ok := skillByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSkill, text)
	}
	*s = v
	return nil
}
