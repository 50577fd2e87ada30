package memory

import (
	"math"
	"testing"
)

const floatEps = 1e-4

func newTestAlgo() algo {
	return algo{w: DefaultWeights}
}

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > floatEps {
		t.Errorf("%s = %f, want %f", name, got, want)
	}
}

func TestInitStability_StrictlyIncreasing(t *testing.T) {
	a := newTestAlgo()
	prev := 0.0
	for _, r := range []Rating{Again, Hard, Good, Easy} {
		s := a.initStability(r)
		if s <= prev {
			t.Errorf("initStability(%s) = %f, want > %f", r, s, prev)
		}
		prev = s
	}
}

func TestInitDifficulty_StrictlyDecreasing(t *testing.T) {
	a := newTestAlgo()
	prev := math.Inf(1)
	for _, r := range []Rating{Again, Hard, Good, Easy} {
		d := a.initDifficulty(r)
		if d >= prev {
			t.Errorf("initDifficulty(%s) = %f, want < %f", r, d, prev)
		}
		if d < 1 || d > 10 {
			t.Errorf("initDifficulty(%s) = %f outside [1, 10]", r, d)
		}
		prev = d
	}
}

func TestNextStability_MonotoneInRating(t *testing.T) {
	a := newTestAlgo()
	difficulties := []float64{1, 3.5, 7, 10}
	stabilities := []float64{0.1, 1, 10, 400}
	retrievabilities := []float64{0.5, 0.8, 0.9, 0.99}

	for _, d := range difficulties {
		for _, s := range stabilities {
			for _, r := range retrievabilities {
				prev := -1.0
				for _, rating := range []Rating{Again, Hard, Good, Easy} {
					next := a.nextStability(d, s, r, rating)
					if next <= prev {
						t.Fatalf("nextStability(d=%.1f s=%.1f r=%.2f) not monotone: %s gave %f after %f",
							d, s, r, rating, next, prev)
					}
					if next <= 0 || math.IsInf(next, 0) || math.IsNaN(next) {
						t.Fatalf("nextStability(%s) = %f not positive finite", rating, next)
					}
					prev = next
				}
			}
		}
	}
}

func TestNextStability_RecallAlwaysGrows(t *testing.T) {
	a := newTestAlgo()
	for _, rating := range []Rating{Hard, Good, Easy} {
		next := a.nextStability(5, 10, 0.9, rating)
		if next <= 10 {
			t.Errorf("recall with %s shrank stability: %f", rating, next)
		}
	}
}

func TestNextStability_LapseNeverGrows(t *testing.T) {
	a := newTestAlgo()
	for _, s := range []float64{0.001, 0.5, 10, 5000} {
		next := a.nextStability(5, s, 0.7, Again)
		if next > s {
			t.Errorf("lapse grew stability %f -> %f", s, next)
		}
		if next < 0.001 {
			t.Errorf("lapse stability %f under floor", next)
		}
	}
}

func TestNextDifficulty_ClampedAndDirectional(t *testing.T) {
	a := newTestAlgo()
	for d := 1.0; d <= 10; d += 0.5 {
		harder := a.nextDifficulty(d, Again)
		easier := a.nextDifficulty(d, Easy)
		if harder < 1 || harder > 10 || easier < 1 || easier > 10 {
			t.Fatalf("difficulty escaped [1, 10]: again=%f easy=%f", harder, easier)
		}
		if harder < easier {
			t.Errorf("at d=%f: again (%f) should be harder than easy (%f)", d, harder, easier)
		}
	}
}

func TestNextInterval_MonotoneInStability(t *testing.T) {
	a := newTestAlgo()
	prev := -1
	for _, s := range []float64{0.1, 0.5, 1, 2, 5, 10, 50, 365, 5000} {
		ivl := a.nextInterval(s, 0.9, defaultMaxInterval)
		if ivl < prev {
			t.Fatalf("interval decreased: stability %f gave %d after %d", s, ivl, prev)
		}
		prev = ivl
	}
}

func TestNextInterval_CappedForHugeStability(t *testing.T) {
	a := newTestAlgo()
	if ivl := a.nextInterval(100000, 0.9, defaultMaxInterval); ivl != defaultMaxInterval {
		t.Errorf("interval = %d, want cap %d", ivl, defaultMaxInterval)
	}
}

func TestNextInterval_NonNegative(t *testing.T) {
	a := newTestAlgo()
	if ivl := a.nextInterval(0.001, 0.9, defaultMaxInterval); ivl != 0 {
		t.Errorf("tiny stability interval = %d, want 0 (due immediately)", ivl)
	}
}

func TestNextInterval_RetentionShapesSpacing(t *testing.T) {
	a := newTestAlgo()
	// At 90% retention the interval roughly equals the stability.
	if ivl := a.nextInterval(10, 0.9, defaultMaxInterval); ivl != 10 {
		t.Errorf("interval at 0.9 = %d, want 10", ivl)
	}
	// Lower retention targets allow longer spacing.
	lax := a.nextInterval(10, 0.8, defaultMaxInterval)
	strict := a.nextInterval(10, 0.97, defaultMaxInterval)
	if !(strict < 10 && 10 < lax) {
		t.Errorf("retention ordering broken: strict=%d lax=%d", strict, lax)
	}
}

func TestRetrievability_Endpoints(t *testing.T) {
	a := newTestAlgo()
	assertFloat(t, "R(0, 5)", a.retrievability(0, 5), 1)
	// Elapsed equal to stability lands exactly on the 90% target.
	assertFloat(t, "R(S, S)", a.retrievability(7, 7), 0.9)
	if r := a.retrievability(1e7, 1); r <= 0 {
		t.Errorf("retrievability %f must stay positive", r)
	}
}

func TestValidateWeights(t *testing.T) {
	if err := ValidateWeights(DefaultWeights); err != nil {
		t.Fatalf("default weights rejected: %v", err)
	}

	bad := DefaultWeights
	bad[4] = 50 // above upper bound
	if err := ValidateWeights(bad); err == nil {
		t.Error("out-of-bounds weight accepted")
	}

	unordered := DefaultWeights
	unordered[0], unordered[3] = unordered[3], unordered[0]
	if err := ValidateWeights(unordered); err == nil {
		t.Error("unordered initial stabilities accepted")
	}
}
