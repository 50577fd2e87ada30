package learner

import "math"

const (
	// msPerWord estimates expected dwell time from content length.
	msPerWord = 250

	// Raw-signal weights.
	replayBonus  = 2.0
	skipPenalty  = 3.0
	ratingWeight = 500.0

	// engagementSmoothing is the EMA factor for the running mean,
	// variance, and the descriptive averages.
	engagementSmoothing = 0.1

	// engagementClamp bounds the normalized z-score.
	engagementClamp = 3.0
)

// EngagementSignal carries the raw observable signals from one content
// interaction. All fields are optional; zero values contribute nothing.
type EngagementSignal struct {
	DwellMs   int      `json:"dwell_ms"`
	WordCount int      `json:"word_count"`
	Replays   int      `json:"replays"`
	Skips     int      `json:"skips"`
	Rating    float64  `json:"rating"`
	TopicTags []string `json:"topic_tags"`
	Completed bool     `json:"completed"`
}

// RawEngagement combines the signal components into one raw value:
// dwell ratio against the expected reading time, a bonus per replay, a
// penalty per skip, and the explicit rating. The raw scale is arbitrary;
// NormalizeEngagement makes it comparable across learners.
func RawEngagement(sig EngagementSignal) float64 {
	raw := dwellRatio(sig)
	raw += replayBonus * float64(sig.Replays)
	raw -= skipPenalty * float64(sig.Skips)
	raw += ratingWeight * sig.Rating
	return raw
}

// dwellRatio is actual dwell over expected dwell, neutral (1.0) when the
// word count is unknown.
func dwellRatio(sig EngagementSignal) float64 {
	expected := float64(sig.WordCount) * msPerWord
	if expected <= 0 {
		return 1.0
	}
	return float64(sig.DwellMs) / expected
}

// NormalizeEngagement folds a raw engagement value into the running
// mean/variance and returns the updated stats together with the clamped
// z-score. A learner who always produces the same raw value converges to
// a z-score of 0.
func NormalizeEngagement(stats EngagementStats, raw float64) (EngagementStats, float64) {
	diff := raw - stats.EngagementMean
	incr := engagementSmoothing * diff
	stats.EngagementMean += incr
	stats.EngagementVariance = (1 - engagementSmoothing) * (stats.EngagementVariance + diff*incr)
	if stats.EngagementVariance < 0 {
		stats.EngagementVariance = 0
	}
	stats.SampleCount++

	denom := math.Max(math.Sqrt(stats.EngagementVariance), 1)
	z := clamp((raw-stats.EngagementMean)/denom, -engagementClamp, engagementClamp)
	return stats, z
}

// observeSignal updates the descriptive averages from one signal.
func observeSignal(stats EngagementStats, sig EngagementSignal) EngagementStats {
	stats.AvgDwellMs = ema(stats.AvgDwellMs, float64(sig.DwellMs))
	stats.CompletionRate = ema(stats.CompletionRate, boolRate(sig.Completed))
	stats.SkipRate = ema(stats.SkipRate, boolRate(sig.Skips > 0))
	stats.ReplayRate = ema(stats.ReplayRate, boolRate(sig.Replays > 0))
	return stats
}

func ema(current, observed float64) float64 {
	return current + engagementSmoothing*(observed-current)
}

func boolRate(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
