package memory

import "math"

// algo evaluates the scheduling formulas over one weight set.
type algo struct {
	w Weights
}

// retrievability computes R(t, S) = 1 / (1 + t/(9S)): the probability of
// recall t days after a review that left stability S. R(0, S) = 1 and
// R(9S·(1/r - 1), S) = r, which is what nextInterval inverts.
func (a *algo) retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays <= 0 {
		return 1
	}
	return 1 / (1 + elapsedDays/(9*clampS(stability)))
}

// initStability returns S₀(G) = w[G], strictly increasing in the rating.
func (a *algo) initStability(r Rating) float64 {
	return clampS(a.w[int(r.grade())])
}

// initDifficulty returns D₀(G) = w[4] - (G-2)·w[5], strictly decreasing
// in the rating and clamped to [1, 10].
func (a *algo) initDifficulty(r Rating) float64 {
	return clampD(a.w[4] - (r.grade()-2)*a.w[5])
}

// nextDifficulty updates difficulty after a review and reverts it toward
// the initial Good difficulty:
//
//	D'  = D - w[6]·(G - 2)
//	D'' = clamp(w[7]·D₀(Good) + (1-w[7])·D', 1, 10)
func (a *algo) nextDifficulty(difficulty float64, r Rating) float64 {
	dPrime := difficulty - a.w[6]*(r.grade()-2)
	return clampD(a.w[7]*a.initDifficulty(Good) + (1-a.w[7])*dPrime)
}

// nextStability dispatches on the rating: Again takes the lapse branch,
// everything else the recall branch. The result is always positive and
// finite.
func (a *algo) nextStability(d, s, r float64, rating Rating) float64 {
	if rating == Again {
		return a.nextForgetStability(d, s, r)
	}
	return a.nextRecallStability(d, s, r, rating)
}

// nextRecallStability grows stability after a successful recall:
//
//	S' = S·(1 + e^w[8]·(11-D)·S^(-w[9])·(e^(w[10]·(1-R)) - 1)·HP·EB)
//
// with HP = w[15] for Hard and EB = w[16] for Easy. The growth term is
// positive, so S' > S for every success, and the HP < 1 < EB ordering
// keeps hard < good < easy.
func (a *algo) nextRecallStability(d, s, r float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = a.w[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = a.w[16]
	}
	grown := s * (1 + math.Exp(a.w[8])*
		(11-d)*
		math.Pow(s, -a.w[9])*
		(math.Exp(a.w[10]*(1-r))-1)*
		hardPenalty*easyBonus)
	return clampS(grown)
}

// nextForgetStability shrinks stability after a lapse:
//
//	S' = min(S, w[11]·D^(-w[12])·((S+1)^w[13] - 1)·e^(w[14]·(1-R)))
//
// The min keeps a lapse from ever increasing stability.
func (a *algo) nextForgetStability(d, s, r float64) float64 {
	shrunk := a.w[11] *
		math.Pow(d, -a.w[12]) *
		(math.Pow(s+1, a.w[13]) - 1) *
		math.Exp(a.w[14]*(1-r))
	return clampS(math.Min(shrunk, s))
}

// nextInterval computes the review interval in whole days:
// round(S·9·(1/retention - 1)), clamped to [0, maxIvl]. Very small
// stabilities round to 0, meaning the card is due again immediately.
func (a *algo) nextInterval(stability, requestedRetention float64, maxIvl int) int {
	ivl := stability * 9 * (1/requestedRetention - 1)
	rounded := int(math.Round(ivl))
	if rounded < 0 {
		rounded = 0
	}
	if rounded > maxIvl {
		rounded = maxIvl
	}
	return rounded
}

// clampS floors stability at 0.001.
func clampS(s float64) float64 {
	if s < 0.001 || math.IsNaN(s) {
		return 0.001
	}
	return s
}

// clampD clamps difficulty to [1, 10].
func clampD(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
