package learner

import (
	"math"
	"time"
)

const (
	// Skill EMA smoothing band and the study-minutes-per-sample divisor.
	skillAlphaMin    = 0.05
	skillAlphaMax    = 0.25
	minutesPerSample = 5.0

	// weakScoreThreshold adds a (skill, topic) to the weak areas;
	// weakPruneThreshold removes it once the skill recovers.
	weakScoreThreshold = 60
	weakPruneThreshold = 80
)

// SkillWeight names one tested skill and its share of the event.
type SkillWeight struct {
	Skill  Skill   `json:"skill"`
	Weight float64 `json:"weight"`
}

// Interaction is one graded learning event.
type Interaction struct {
	SkillsTested    []SkillWeight     `json:"skills_tested"`
	Score           int               `json:"score"` // 0..100
	Difficulty      float64           `json:"difficulty"`
	DurationMinutes float64           `json:"duration_minutes"`
	Engagement      *EngagementSignal `json:"engagement,omitempty"`
}

// UpdateSummary reports what one Apply call changed.
type UpdateSummary struct {
	AbilityBefore float64       `json:"ability_before"`
	AbilityAfter  float64       `json:"ability_after"`
	Confidence    float64       `json:"confidence"`
	EngagementZ   float64       `json:"engagement_z"`
	SkillScores   map[Skill]int `json:"skill_scores"`
	Readiness     Readiness     `json:"readiness"`
}

// Apply folds one interaction into the profile and returns the updated
// copy. The input profile is not mutated. A score outside [0, 100] is
// rejected with ErrScoreOutOfRange; it is never clamped.
func Apply(profile *Profile, ev Interaction, now time.Time) (*Profile, *UpdateSummary, error) {
	if ev.Score < 0 || ev.Score > 100 {
		return nil, nil, ErrScoreOutOfRange
	}

	p := profile.Clone()
	outcome := float64(ev.Score) / 100

	tested := normalizeSkillWeights(ev.SkillsTested)
	rate := LearningRate(p.AbilityConfidence)

	summary := &UpdateSummary{AbilityBefore: p.AbilityEstimate}

	// Overall ability moves at the full learning rate; each tested skill's
	// ability moves at the rate scaled by its normalized weight.
	p.AbilityEstimate = UpdateAbility(p.AbilityEstimate, ev.Difficulty, outcome, rate)
	for _, tw := range tested {
		cur := p.AbilityBySkill[tw.Skill]
		p.AbilityBySkill[tw.Skill] = UpdateAbility(cur, ev.Difficulty, outcome, rate*tw.Weight)
	}
	p.AbilityConfidence = DecayConfidence(p.AbilityConfidence, len(tested))

	// Skill scores: sample-size-adaptive EMA toward the raw event score.
	// The sample size reflects study time before this event.
	alpha := skillAlpha(p.TotalStudyMinutes)
	for _, tw := range tested {
		cur := p.SkillScore(tw.Skill)
		moved := float64(cur) + alpha*tw.Weight*(float64(ev.Score)-float64(cur))
		p.Skills[tw.Skill] = int(clamp(math.Round(moved), 0, 100))
	}
	if ev.DurationMinutes > 0 {
		p.TotalStudyMinutes += ev.DurationMinutes
	}

	// Engagement and interests only move when signals were reported.
	var topic string
	if ev.Engagement != nil {
		sig := *ev.Engagement
		raw := RawEngagement(sig)
		var z float64
		p.Engagement, z = NormalizeEngagement(p.Engagement, raw)
		p.Engagement = observeSignal(p.Engagement, sig)
		UpdateInterests(p.InterestWeights, sig.TopicTags, z)
		summary.EngagementZ = z
		if len(sig.TopicTags) > 0 {
			topic = sig.TopicTags[0]
		}
	}

	p.Calibration.RecentAccuracy = ema(p.Calibration.RecentAccuracy, outcome)
	p.Calibration.LastAdjustAt = now

	updateWeakAreas(p, tested, ev.Score, topic, now)
	p.Readiness = ClassifyReadiness(p.Skills, p.VocabCoverage)

	summary.AbilityAfter = p.AbilityEstimate
	summary.Confidence = p.AbilityConfidence
	summary.SkillScores = p.Skills
	summary.Readiness = p.Readiness
	return p, summary, nil
}

// ApplyPlacement seeds the profile from a completed placement test.
func ApplyPlacement(profile *Profile, ability, standardError float64) *Profile {
	p := profile.Clone()
	p.AbilityEstimate = clamp(ability, AbilityMin, AbilityMax)
	p.AbilityConfidence = math.Max(standardError, MinConfidence)
	return p
}

// SetVocabCoverage replaces the coverage block and reclassifies
// readiness. Counts are normalized so they can never go negative.
func SetVocabCoverage(profile *Profile, cov VocabCoverage) *Profile {
	p := profile.Clone()
	if cov.Known < 0 {
		cov.Known = 0
	}
	if cov.Learning < 0 {
		cov.Learning = 0
	}
	if cov.TotalWords < 0 {
		cov.TotalWords = 0
	}
	cov.Unknown = cov.TotalWords - cov.Known - cov.Learning
	if cov.Unknown < 0 {
		cov.Unknown = 0
	}
	p.VocabCoverage = cov
	p.Readiness = ClassifyReadiness(p.Skills, p.VocabCoverage)
	return p
}

// normalizeSkillWeights drops unknown skills and scales weights to sum to
// 1. Missing or zero-sum weights fall back to an equal split; the divisor
// is never zero.
func normalizeSkillWeights(tested []SkillWeight) []SkillWeight {
	valid := make([]SkillWeight, 0, len(tested))
	sum := 0.0
	for _, tw := range tested {
		if !tw.Skill.IsValid() {
			continue // unknown skill: per-key no-op
		}
		if tw.Weight < 0 {
			tw.Weight = 0
		}
		valid = append(valid, tw)
		sum += tw.Weight
	}
	if len(valid) == 0 {
		return nil
	}
	if sum <= 0 {
		equal := 1.0 / float64(len(valid))
		for i := range valid {
			valid[i].Weight = equal
		}
		return valid
	}
	for i := range valid {
		valid[i].Weight /= sum
	}
	return valid
}

func skillAlpha(totalStudyMinutes float64) float64 {
	sampleSize := math.Max(1, math.Round(totalStudyMinutes/minutesPerSample))
	return clamp(2/(sampleSize+2), skillAlphaMin, skillAlphaMax)
}

// updateWeakAreas refreshes entries for tested skills, records new weak
// pairs for low event scores, and prunes recovered ones.
func updateWeakAreas(p *Profile, tested []SkillWeight, score int, topic string, now time.Time) {
	testedSet := make(map[Skill]bool, len(tested))
	for _, tw := range tested {
		testedSet[tw.Skill] = true
	}

	seen := make(map[Skill]bool, len(p.WeakAreas))
	kept := p.WeakAreas[:0]
	for _, wa := range p.WeakAreas {
		if testedSet[wa.Skill] {
			wa.Score = p.SkillScore(wa.Skill)
			wa.LastTestedAt = now
			wa.QuestionCount++
			seen[wa.Skill] = true
		}
		if wa.Score >= weakPruneThreshold {
			continue
		}
		kept = append(kept, wa)
	}
	p.WeakAreas = kept

	if score >= weakScoreThreshold {
		return
	}
	for _, tw := range tested {
		if seen[tw.Skill] {
			continue
		}
		cur := p.SkillScore(tw.Skill)
		if cur >= weakPruneThreshold {
			continue
		}
		p.WeakAreas = append(p.WeakAreas, WeakArea{
			Skill:         tw.Skill,
			Topic:         topic,
			Score:         cur,
			LastTestedAt:  now,
			QuestionCount: 1,
		})
	}
}
