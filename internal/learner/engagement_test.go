package learner

import "testing"

func TestRawEngagement_DwellRatioOnly(t *testing.T) {
	// 100 words -> expected dwell 25000ms; actual matches exactly.
	sig := EngagementSignal{DwellMs: 25000, WordCount: 100}
	if got := RawEngagement(sig); !almostEqual(got, 1.0) {
		t.Errorf("RawEngagement = %f, want 1.0", got)
	}
}

func TestRawEngagement_UnknownWordCountIsNeutral(t *testing.T) {
	sig := EngagementSignal{DwellMs: 60000}
	if got := RawEngagement(sig); !almostEqual(got, 1.0) {
		t.Errorf("RawEngagement with no word count = %f, want neutral 1.0", got)
	}
}

func TestRawEngagement_Components(t *testing.T) {
	sig := EngagementSignal{
		DwellMs:   25000,
		WordCount: 100,
		Replays:   2,
		Skips:     1,
		Rating:    0.01,
	}
	// 1.0 + 2*2 - 3*1 + 500*0.01 = 7.0
	if got := RawEngagement(sig); !almostEqual(got, 7.0) {
		t.Errorf("RawEngagement = %f, want 7.0", got)
	}
}

func TestNormalizeEngagement_FirstSurpriseClamps(t *testing.T) {
	stats := EngagementStats{}
	_, z := NormalizeEngagement(stats, 42)
	if !almostEqual(z, 3.0) {
		t.Errorf("first large raw z = %f, want clamp 3.0", z)
	}
}

func TestNormalizeEngagement_ConstantSignalConvergesToZero(t *testing.T) {
	stats := EngagementStats{}
	var z float64
	for i := 0; i < 300; i++ {
		stats, z = NormalizeEngagement(stats, 42)
	}
	if !almostEqual(stats.EngagementMean, 42) {
		t.Errorf("mean = %f, want 42", stats.EngagementMean)
	}
	if stats.EngagementVariance > 0.01 {
		t.Errorf("variance = %f, want near 0", stats.EngagementVariance)
	}
	if !almostEqual(z, 0) {
		t.Errorf("z after constant feed = %f, want 0", z)
	}
}

func TestNormalizeEngagement_VarianceNeverNegative(t *testing.T) {
	stats := EngagementStats{}
	inputs := []float64{5, -5, 100, -100, 0, 0.001}
	for _, raw := range inputs {
		stats, _ = NormalizeEngagement(stats, raw)
		if stats.EngagementVariance < 0 {
			t.Fatalf("variance went negative: %f", stats.EngagementVariance)
		}
	}
}

func TestNormalizeEngagement_ZStaysClamped(t *testing.T) {
	stats := EngagementStats{}
	for _, raw := range []float64{0, 0, 0, 1e9, -1e9} {
		var z float64
		stats, z = NormalizeEngagement(stats, raw)
		if z > 3 || z < -3 {
			t.Fatalf("z = %f outside [-3, 3]", z)
		}
	}
}

func TestUpdateInterests_ZeroEngagementDecaysTowardNeutral(t *testing.T) {
	weights := map[string]float64{"travel": 0.8, "food": -0.6}
	for i := 0; i < 100; i++ {
		UpdateInterests(weights, []string{"travel", "food"}, 0)
	}
	if w := weights["travel"]; w < 0 || w > 0.15 {
		t.Errorf("travel weight = %f, want decayed toward 0 from above", w)
	}
	if w := weights["food"]; w > 0 || w < -0.15 {
		t.Errorf("food weight = %f, want decayed toward 0 from below", w)
	}
}

func TestUpdateInterests_NewTagStartsFromZero(t *testing.T) {
	weights := map[string]float64{}
	UpdateInterests(weights, []string{"anime"}, 2.0)
	if !almostEqual(weights["anime"], 0.1) {
		t.Errorf("new tag weight = %f, want 0.1", weights["anime"])
	}
}

func TestUpdateInterests_Bounds(t *testing.T) {
	weights := map[string]float64{"sports": 0.99}
	for i := 0; i < 50; i++ {
		UpdateInterests(weights, []string{"sports"}, 3.0)
	}
	if weights["sports"] > 1 {
		t.Errorf("weight %f exceeded 1", weights["sports"])
	}
	weights["sports"] = -0.99
	for i := 0; i < 50; i++ {
		UpdateInterests(weights, []string{"sports"}, -3.0)
	}
	if weights["sports"] < -1 {
		t.Errorf("weight %f under -1", weights["sports"])
	}
}

func TestTopInterests_OrdersAndFilters(t *testing.T) {
	weights := map[string]float64{
		"travel": 0.6,
		"food":   0.9,
		"sports": -0.4,
		"anime":  0.6,
		"music":  0.1,
	}
	got := TopInterests(weights, 3)
	want := []string{"food", "anime", "travel"}
	if len(got) != len(want) {
		t.Fatalf("top interests = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("top interests = %v, want %v", got, want)
		}
	}
}

func TestTopInterests_Empty(t *testing.T) {
	if got := TopInterests(nil, 3); got != nil {
		t.Errorf("expected nil for empty weights, got %v", got)
	}
	if got := TopInterests(map[string]float64{"food": 0.5}, 0); got != nil {
		t.Errorf("expected nil for zero limit, got %v", got)
	}
	if got := TopInterests(map[string]float64{"food": -0.5}, 3); len(got) != 0 {
		t.Errorf("expected no topics when all weights negative, got %v", got)
	}
}
