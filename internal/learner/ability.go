package learner

import "math"

const (
	// irtScale is the logistic scaling constant of the 2PL model.
	irtScale = 1.7

	// Learning-rate band: low confidence (high SE) learns fast.
	learnRateMin = 0.03
	learnRateMax = 0.15

	// confidenceDecay shrinks the standard error once per skill tested.
	confidenceDecay = 0.85

	// IPlusOneNudge biases targets slightly above current ability.
	IPlusOneNudge = 0.3
)

// ExpectedOutcome returns the 2PL probability of a correct outcome for a
// learner at the given ability facing an item of the given difficulty.
func ExpectedOutcome(ability, difficulty float64) float64 {
	return 1 / (1 + math.Exp(-irtScale*(ability-difficulty)))
}

// LearningRate maps the ability standard error to a step size.
// SE 0 gives the minimum rate, SE >= 1 the maximum.
func LearningRate(standardError float64) float64 {
	return lerp(learnRateMin, learnRateMax, clamp(standardError, 0, 1))
}

// UpdateAbility moves an ability estimate toward the observed outcome.
// outcome is the graded result as a proportion in [0, 1]; rate is the
// (possibly weight-scaled) learning rate. The result stays in [-3, 3].
func UpdateAbility(ability, difficulty, outcome, rate float64) float64 {
	expected := ExpectedOutcome(ability, difficulty)
	return clamp(ability+rate*(outcome-expected), AbilityMin, AbilityMax)
}

// DecayConfidence shrinks the standard error after an event that tested
// skillCount skills. Confidence never regresses: the result is at most
// the input, and never below MinConfidence.
func DecayConfidence(standardError float64, skillCount int) float64 {
	if skillCount <= 0 {
		return math.Max(standardError, MinConfidence)
	}
	decayed := standardError * math.Pow(confidenceDecay, float64(skillCount))
	return math.Max(decayed, MinConfidence)
}

func lerp(lo, hi, t float64) float64 {
	return lo + (hi-lo)*t
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
