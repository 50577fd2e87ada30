package selector

import "sort"

// ReuseCandidate is an existing content item under consideration for
// reuse. The caller queries these from storage, already filtered to the
// right language and content type and excluding anything this learner
// saw within the recency window.
type ReuseCandidate struct {
	ContentID  string
	Content    Content
	Difficulty float64

	// AvgScore is the historical average learner score (0..100) on this
	// item; it proxies for clarity.
	AvgScore float64

	// CompletionRate is the fraction of views that reached the end; a
	// heavily consumed item has little novelty left.
	CompletionRate float64
}

// scoreReuse computes the four components for one existing item.
func (s *Selector) scoreReuse(c ReuseCandidate, targetDifficulty float64, learnerTopics []string) Scores {
	sc := Scores{
		DifficultyFit: clamp01(1 - abs(c.Difficulty-targetDifficulty)),
		InterestFit:   topicOverlap(c.Content.TopicTags, learnerTopics),
		Clarity:       clamp01(c.AvgScore / 100),
		Novelty:       clamp01(1 - c.CompletionRate),
	}
	sc.Total = s.config.weightedTotal(sc)
	return sc
}

// rankReuse scores every candidate and orders them best-first.
func (s *Selector) rankReuse(candidates []ReuseCandidate, targetDifficulty float64, learnerTopics []string) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Candidate{
			CandidateID: c.ContentID,
			Content:     c.Content,
			Scores:      s.scoreReuse(c, targetDifficulty, learnerTopics),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Scores.Total > out[j].Scores.Total
	})
	return out
}

// topicOverlap is the fraction of the learner's topics covered by the
// item. A learner with no stated preferences gets the neutral 0.5.
func topicOverlap(itemTopics, learnerTopics []string) float64 {
	if len(learnerTopics) == 0 {
		return 0.5
	}
	item := make(map[string]bool, len(itemTopics))
	for _, t := range itemTopics {
		item[t] = true
	}
	hits := 0
	for _, t := range learnerTopics {
		if item[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(learnerTopics))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
