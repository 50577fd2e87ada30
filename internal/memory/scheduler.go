package memory

import (
	"fmt"
	"time"
)

// Config configures a Scheduler. Zero values produce defaults.
type Config struct {
	Weights            Weights `json:"weights"`             // zero → DefaultWeights
	RequestedRetention float64 `json:"requested_retention"` // zero → 0.9
	MaximumInterval    int     `json:"maximum_interval"`    // zero → 36500 days
}

const (
	defaultRetention   = 0.9
	defaultMaxInterval = 36500
)

// Scheduler computes review schedules. All methods are pure: cards are
// passed and returned by value, so callers own persistence and can
// serialize concurrent reviews of the same item however they like.
type Scheduler struct {
	algo               algo
	requestedRetention float64
	maximumInterval    int
}

// NewScheduler creates a Scheduler from the config, filling zero-value
// fields with defaults and rejecting out-of-domain values.
func NewScheduler(cfg Config) (*Scheduler, error) {
	w := cfg.Weights
	if w == (Weights{}) {
		w = DefaultWeights
	}
	if err := ValidateWeights(w); err != nil {
		return nil, err
	}

	retention := cfg.RequestedRetention
	if retention == 0 {
		retention = defaultRetention
	}
	if retention <= 0 || retention >= 1 {
		return nil, fmt.Errorf("%w: requested retention %f outside (0, 1)", ErrInvalidConfig, retention)
	}

	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = defaultMaxInterval
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("%w: maximum interval %d must be positive", ErrInvalidConfig, maxIvl)
	}

	return &Scheduler{
		algo:               algo{w: w},
		requestedRetention: retention,
		maximumInterval:    maxIvl,
	}, nil
}

// ReviewLog records the outcome of one review.
type ReviewLog struct {
	ItemID        string    `json:"item_id"`
	Rating        Rating    `json:"rating"`
	ScheduledDays int       `json:"scheduled_days"`
	ElapsedDays   float64   `json:"elapsed_days"`
	ReviewedAt    time.Time `json:"reviewed_at"`
}

// ReviewCard applies one review at the given time and returns the
// updated card plus a log entry. The input card is not mutated. An
// invalid rating returns ErrInvalidRating.
func (s *Scheduler) ReviewCard(card Card, rating Rating, now time.Time) (Card, ReviewLog, error) {
	if !rating.IsValid() {
		return Card{}, ReviewLog{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	c := card
	elapsed := c.ElapsedDays(now)

	if !c.Reviewed() {
		c.Stability = s.algo.initStability(rating)
		c.Difficulty = s.algo.initDifficulty(rating)
	} else {
		r := s.algo.retrievability(elapsed, c.Stability)
		c.Stability = s.algo.nextStability(c.Difficulty, c.Stability, r, rating)
		c.Difficulty = s.algo.nextDifficulty(c.Difficulty, rating)
		if rating == Again {
			c.Lapses++
		}
	}
	c.Reps++

	ivl := s.algo.nextInterval(c.Stability, s.requestedRetention, s.maximumInterval)
	c.LastReview = now
	c.Due = now.Add(time.Duration(ivl) * 24 * time.Hour)

	log := ReviewLog{
		ItemID:        c.ItemID,
		Rating:        rating,
		ScheduledDays: ivl,
		ElapsedDays:   elapsed,
		ReviewedAt:    now,
	}
	return c, log, nil
}

// PreviewCard returns the card state each rating would produce, without
// committing any of them.
func (s *Scheduler) PreviewCard(card Card, now time.Time) map[Rating]Card {
	result := make(map[Rating]Card, 4)
	for _, r := range []Rating{Again, Hard, Good, Easy} {
		c, _, err := s.ReviewCard(card, r, now)
		if err != nil {
			continue
		}
		result[r] = c
	}
	return result
}

// Retrievability returns the card's current recall probability.
func (s *Scheduler) Retrievability(card Card, now time.Time) float64 {
	if !card.Reviewed() {
		return 0
	}
	return s.algo.retrievability(card.ElapsedDays(now), card.Stability)
}

// Interval exposes the interval function for a given stability, mainly
// for preview and diagnostics.
func (s *Scheduler) Interval(stability float64) int {
	return s.algo.nextInterval(stability, s.requestedRetention, s.maximumInterval)
}
