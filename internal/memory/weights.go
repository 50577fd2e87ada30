package memory

import "fmt"

// Weights are the 17 tunable parameters of the scheduler:
//
//	w[0..3]   initial stability per rating
//	w[4..5]   initial difficulty (base, per-grade slope)
//	w[6..7]   difficulty update (slope, mean-reversion mix)
//	w[8..10]  recall stability growth
//	w[11..14] lapse stability decay
//	w[15]     hard penalty, w[16] easy bonus
type Weights [17]float64

// DefaultWeights are the stock parameter values. They satisfy the
// ordering the scheduler's contracts rely on: w0 < w1 < w2 < w3,
// w15 < 1 < w16.
var DefaultWeights = Weights{
	0.4, 0.6, 2.4, 5.8, // w[0..3]  initial stability
	4.93, 0.94, // w[4..5]  initial difficulty
	0.86, 0.01, // w[6..7]  difficulty update
	1.49, 0.14, 0.94, // w[8..10] recall stability
	2.18, 0.05, 0.34, 1.26, // w[11..14] lapse stability
	0.29, 2.61, // w[15..16] hard penalty, easy bonus
}

// LowerBounds defines the minimum allowed value for each weight.
var LowerBounds = Weights{
	0.001, 0.001, 0.001, 0.001,
	1.0, 0.001,
	0.001, 0.0,
	0.0, 0.0, 0.001,
	0.001, 0.001, 0.001, 0.0,
	0.0, 1.0,
}

// UpperBounds defines the maximum allowed value for each weight.
var UpperBounds = Weights{
	100.0, 100.0, 100.0, 100.0,
	10.0, 5.0,
	5.0, 0.75,
	4.5, 0.8, 3.5,
	5.0, 0.25, 0.9, 4.0,
	1.0, 6.0,
}

// ValidateWeights checks every weight against [LowerBounds, UpperBounds]
// and the initial-stability ordering the rating monotonicity depends on.
func ValidateWeights(w Weights) error {
	for i := range w {
		if w[i] < LowerBounds[i] || w[i] > UpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidWeights, i, w[i], LowerBounds[i], UpperBounds[i])
		}
	}
	if !(w[0] < w[1] && w[1] < w[2] && w[2] < w[3]) {
		return fmt.Errorf("%w: initial stabilities w[0..3] must be strictly increasing", ErrInvalidWeights)
	}
	return nil
}
