package learner

import (
	"time"
)

// Ability bounds shared by the profile model and the placement engine.
const (
	AbilityMin = -3.0
	AbilityMax = 3.0

	// MinConfidence is the floor for the ability standard error.
	MinConfidence = 0.15

	// InitialConfidence is the standard error assigned to a fresh profile.
	InitialConfidence = 1.0

	// DefaultSkillScore seeds every skill on a fresh profile.
	DefaultSkillScore = 50

	// DefaultTargetAccuracy is the accuracy sweet spot difficulty
	// calibration steers toward.
	DefaultTargetAccuracy = 0.75
)

// Profile holds everything the engine knows about one learner in one
// language. It is a plain value: update operations clone it, apply the
// event, and return the new value, leaving durability to the caller.
type Profile struct {
	UserID   string `json:"user_id"`
	Language string `json:"language"`

	// AbilityEstimate is the IRT ability on the [-3, 3] logit scale.
	AbilityEstimate float64 `json:"ability_estimate"`
	// AbilityConfidence is the standard error of the estimate; lower is
	// more certain. Floored at MinConfidence, only ever decreases.
	AbilityConfidence float64            `json:"ability_confidence"`
	AbilityBySkill    map[Skill]float64  `json:"ability_by_skill"`
	Skills            map[Skill]int      `json:"skills"`
	WeakAreas         []WeakArea         `json:"weak_areas"`
	VocabCoverage     VocabCoverage      `json:"vocab_coverage"`
	Readiness         Readiness          `json:"readiness"`
	InterestWeights   map[string]float64 `json:"interest_weights"`
	Engagement        EngagementStats    `json:"engagement"`
	Calibration       Calibration        `json:"calibration"`
	TotalStudyMinutes float64            `json:"total_study_minutes"`
}

// WeakArea marks a (skill, topic) pair the learner keeps missing.
// Entries are pruned once the skill score recovers to 80.
type WeakArea struct {
	Skill         Skill     `json:"skill"`
	Topic         string    `json:"topic"`
	Score         int       `json:"score"`
	LastTestedAt  time.Time `json:"last_tested_at"`
	QuestionCount int       `json:"question_count"`
}

// VocabCoverage summarizes the learner's progress through the target
// level's vocabulary. Known + Learning + Unknown == TotalWords whenever
// TotalWords is set.
type VocabCoverage struct {
	TargetLevel string `json:"target_level"`
	TotalWords  int    `json:"total_words"`
	Known       int    `json:"known"`
	Learning    int    `json:"learning"`
	Unknown     int    `json:"unknown"`
}

// Percent returns coverage as 0-100, or 0 when no word list is loaded.
func (v VocabCoverage) Percent() float64 {
	if v.TotalWords <= 0 {
		return 0
	}
	return 100 * float64(v.Known) / float64(v.TotalWords)
}

// EngagementStats carries the running engagement averages and the
// mean/variance pair backing the z-score normalization.
type EngagementStats struct {
	AvgDwellMs         float64 `json:"avg_dwell_ms"`
	CompletionRate     float64 `json:"completion_rate"`
	SkipRate           float64 `json:"skip_rate"`
	ReplayRate         float64 `json:"replay_rate"`
	EngagementMean     float64 `json:"engagement_mean"`
	EngagementVariance float64 `json:"engagement_variance"`
	SampleCount        int     `json:"sample_count"`
}

// Calibration tracks recent accuracy against the target accuracy band,
// used to nudge the suggested content difficulty.
type Calibration struct {
	TargetAccuracy float64   `json:"target_accuracy"`
	RecentAccuracy float64   `json:"recent_accuracy"`
	LastAdjustAt   time.Time `json:"last_adjust_at"`
}

// NewProfile builds the default profile for a (user, language) pair.
// Profiles are created lazily on first interaction; a missing profile is
// never an error.
func NewProfile(userID, language string) *Profile {
	skills := make(map[Skill]int, len(AllSkills()))
	abilities := make(map[Skill]float64, len(AllSkills()))
	for _, s := range AllSkills() {
		skills[s] = DefaultSkillScore
		abilities[s] = 0
	}
	p := &Profile{
		UserID:            userID,
		Language:          language,
		AbilityEstimate:   0,
		AbilityConfidence: InitialConfidence,
		AbilityBySkill:    abilities,
		Skills:            skills,
		InterestWeights:   make(map[string]float64),
		Calibration: Calibration{
			TargetAccuracy: DefaultTargetAccuracy,
		},
	}
	p.Readiness = ClassifyReadiness(p.Skills, p.VocabCoverage)
	return p
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	out := *p
	out.AbilityBySkill = make(map[Skill]float64, len(p.AbilityBySkill))
	for k, v := range p.AbilityBySkill {
		out.AbilityBySkill[k] = v
	}
	out.Skills = make(map[Skill]int, len(p.Skills))
	for k, v := range p.Skills {
		out.Skills[k] = v
	}
	out.InterestWeights = make(map[string]float64, len(p.InterestWeights))
	for k, v := range p.InterestWeights {
		out.InterestWeights[k] = v
	}
	out.WeakAreas = make([]WeakArea, len(p.WeakAreas))
	copy(out.WeakAreas, p.WeakAreas)
	return &out
}

// SkillScore returns the tracked score for a skill, or the default for
// skills the profile has not seen (possible after adding new skills).
func (p *Profile) SkillScore(s Skill) int {
	if v, ok := p.Skills[s]; ok {
		return v
	}
	return DefaultSkillScore
}

// SuggestedDifficulty derives a content difficulty target from the
// ability estimate: slightly above current ability (comprehensible-input
// bias) and corrected by how far recent accuracy sits from the target
// accuracy band.
func (p *Profile) SuggestedDifficulty() float64 {
	target := p.AbilityEstimate + IPlusOneNudge
	if p.Calibration.RecentAccuracy > 0 {
		target += 0.5 * (p.Calibration.RecentAccuracy - p.Calibration.TargetAccuracy)
	}
	return clamp(target, AbilityMin, AbilityMax)
}
