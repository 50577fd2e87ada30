package memory

import "time"

// Card is the scheduling state for one (learner, item) pair. It is
// created on the first review; Reps == 0 marks a card that has never
// been reviewed.
type Card struct {
	ItemID     string    `json:"item_id"`
	Difficulty float64   `json:"difficulty"` // [1, 10] once reviewed
	Stability  float64   `json:"stability"`  // days, > 0 once reviewed
	Reps       int       `json:"reps"`
	Lapses     int       `json:"lapses"`
	LastReview time.Time `json:"last_review"`
	Due        time.Time `json:"due"`
}

// NewCard creates an unreviewed card that is due immediately.
func NewCard(itemID string, now time.Time) Card {
	return Card{ItemID: itemID, Due: now}
}

// Reviewed reports whether the card has been reviewed at least once.
func (c Card) Reviewed() bool {
	return c.Reps > 0
}

// IsDue reports whether the card is due at the given time.
func (c Card) IsDue(now time.Time) bool {
	return !c.Due.After(now)
}

// ElapsedDays returns fractional days since the last review, 0 for
// unreviewed cards or clock skew.
func (c Card) ElapsedDays(now time.Time) float64 {
	if !c.Reviewed() || c.LastReview.IsZero() {
		return 0
	}
	days := now.Sub(c.LastReview).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}
