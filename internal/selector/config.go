package selector

import "time"

// Config controls scoring weights, thresholds, and the generation
// pipeline. Zero values take the documented defaults.
type Config struct {
	// WeightDifficulty..WeightNovelty are the scoring weights. They
	// apply identically to reuse and generation scoring and should sum
	// to 1.
	WeightDifficulty float64
	WeightInterest   float64
	WeightClarity    float64
	WeightNovelty    float64

	// ReuseThreshold is the minimum top reuse score that skips
	// generation entirely. Generation is the expensive path; reuse-first
	// exists for cost control.
	ReuseThreshold float64

	// RecencyWindow excludes content the learner saw this recently from
	// reuse consideration. The caller applies it when querying
	// candidates.
	RecencyWindow time.Duration

	// CoverageTarget is the ideal fraction of known vocabulary in
	// generated content; CoverageTolerance is the distance at which the
	// difficulty fit reaches zero.
	CoverageTarget    float64
	CoverageTolerance float64

	// LengthTolerance is the allowed relative deviation from the target
	// word count.
	LengthTolerance float64

	// Candidates is how many candidates to generate and rank on a reuse
	// miss. The scoring is defined for N >= 1; the default is 1.
	Candidates int

	// CallTimeout bounds each individual model call; on expiry the
	// pipeline fails over to the next model in the chain.
	CallTimeout time.Duration

	// MaxTokens and Temperature apply to content generation calls.
	MaxTokens   int
	Temperature float64

	// GradeMaxTokens applies to the grading call, which returns a short
	// verdict.
	GradeMaxTokens int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		WeightDifficulty:  0.45,
		WeightInterest:    0.25,
		WeightClarity:     0.20,
		WeightNovelty:     0.10,
		ReuseThreshold:    0.65,
		RecencyWindow:     30 * 24 * time.Hour,
		CoverageTarget:    0.85,
		CoverageTolerance: 0.15,
		LengthTolerance:   0.20,
		Candidates:        1,
		CallTimeout:       60 * time.Second,
		MaxTokens:         2048,
		Temperature:       0.8,
		GradeMaxTokens:    256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WeightDifficulty == 0 && c.WeightInterest == 0 && c.WeightClarity == 0 && c.WeightNovelty == 0 {
		c.WeightDifficulty = d.WeightDifficulty
		c.WeightInterest = d.WeightInterest
		c.WeightClarity = d.WeightClarity
		c.WeightNovelty = d.WeightNovelty
	}
	if c.ReuseThreshold == 0 {
		c.ReuseThreshold = d.ReuseThreshold
	}
	if c.RecencyWindow == 0 {
		c.RecencyWindow = d.RecencyWindow
	}
	if c.CoverageTarget == 0 {
		c.CoverageTarget = d.CoverageTarget
	}
	if c.CoverageTolerance == 0 {
		c.CoverageTolerance = d.CoverageTolerance
	}
	if c.LengthTolerance == 0 {
		c.LengthTolerance = d.LengthTolerance
	}
	if c.Candidates == 0 {
		c.Candidates = d.Candidates
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = d.Temperature
	}
	if c.GradeMaxTokens == 0 {
		c.GradeMaxTokens = d.GradeMaxTokens
	}
	return c
}

// weightedTotal applies the configured weights to the four components.
func (c Config) weightedTotal(s Scores) float64 {
	return c.WeightDifficulty*s.DifficultyFit +
		c.WeightInterest*s.InterestFit +
		c.WeightClarity*s.Clarity +
		c.WeightNovelty*s.Novelty
}
