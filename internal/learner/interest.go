package learner

import "sort"

const (
	// interestDecay pulls every touched weight toward neutral.
	interestDecay = 0.98

	// interestGain scales the engagement nudge per event.
	interestGain = 0.05
)

// UpdateInterests applies the decay-plus-nudge rule to every topic tag in
// the event: w' = clamp(w*0.98 + 0.05*engagement, -1, 1). Tags seen for
// the first time start from 0, so their first weight is the nudge alone.
// The map is mutated in place (callers pass a cloned profile).
func UpdateInterests(weights map[string]float64, tags []string, engagement float64) {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		w := weights[tag]
		weights[tag] = clamp(w*interestDecay+interestGain*engagement, -1, 1)
	}
}

// TopInterests returns up to limit topics with positive weight, highest
// first. Ties break alphabetically so the result is stable.
func TopInterests(weights map[string]float64, limit int) []string {
	if limit <= 0 {
		return nil
	}
	type entry struct {
		tag    string
		weight float64
	}
	entries := make([]entry, 0, len(weights))
	for tag, w := range weights {
		if w > 0 {
			entries = append(entries, entry{tag, w})
		}
	}
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].tag < entries[j].tag
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.tag
	}
	return out
}
