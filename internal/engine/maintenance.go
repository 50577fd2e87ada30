package engine

import (
	"context"
	"time"

	"github.com/sohta/kotoba/internal/learner"
)

// ExpireStalePlacements abandons placement tests idle longer than
// olderThan and returns how many were expired.
func (e *Engine) ExpireStalePlacements(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := e.now().UTC().Add(-olderThan)
	n, err := e.placements.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.Info("expired stale placement tests", "count", n, "idleLongerThan", olderThan)
	}
	return n, nil
}

// RefreshVocabCoverage recomputes every profile's vocabulary coverage
// from its card population: mature cards count as known, reviewed but
// not yet mature as learning. Returns how many profiles were updated.
func (e *Engine) RefreshVocabCoverage(ctx context.Context) (int, error) {
	keys, err := e.profiles.Keys(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, key := range keys {
		stats, err := e.cards.Stats(ctx, key.UserID, key.Language, e.cfg.MatureStabilityDays)
		if err != nil {
			e.log.Warn("card stats failed", "userId", key.UserID, "language", key.Language, "error", err)
			continue
		}

		_, err = e.updateProfile(ctx, key.UserID, key.Language, func(p *learner.Profile) (*learner.Profile, error) {
			cov := p.VocabCoverage
			cov.Known = int(stats.Mature)
			cov.Learning = int(stats.Reviewed - stats.Mature)
			if cov.TotalWords == 0 && cov.TargetLevel != "" {
				cov.TotalWords = levelWordCount(cov.TargetLevel)
			}
			return learner.SetVocabCoverage(p, cov), nil
		})
		if err != nil {
			e.log.Warn("coverage refresh failed", "userId", key.UserID, "language", key.Language, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}

// ReconcileContentStats rebuilds the content aggregates from the view
// log and returns how many rows changed.
func (e *Engine) ReconcileContentStats(ctx context.Context) (int64, error) {
	n, err := e.contents.ReconcileStats(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.Info("reconciled content stats", "rows", n)
	}
	return n, nil
}
