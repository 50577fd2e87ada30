// Package jobs runs the engine's periodic maintenance: stale placement
// expiry, vocabulary coverage refresh, and content stat reconciliation.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/sohta/kotoba/internal/engine"
	"github.com/sohta/kotoba/internal/logger"
)

// Config sets the sweep cadence. Zero values produce defaults.
type Config struct {
	// PlacementExpiry abandons tests idle for longer than this.
	PlacementExpiry time.Duration `json:"placement_expiry"` // zero → 24h

	// ExpirySweepEvery is how often the expiry sweep runs.
	ExpirySweepEvery time.Duration `json:"expiry_sweep_every"` // zero → 1h

	// CoverageRefreshEvery is how often vocabulary coverage is rebuilt
	// from the card population.
	CoverageRefreshEvery time.Duration `json:"coverage_refresh_every"` // zero → 6h

	// ReconcileEvery is how often content aggregates are rebuilt from
	// the view log.
	ReconcileEvery time.Duration `json:"reconcile_every"` // zero → 24h

	// JobTimeout bounds each sweep run.
	JobTimeout time.Duration `json:"job_timeout"` // zero → 5m
}

func (c Config) withDefaults() Config {
	if c.PlacementExpiry == 0 {
		c.PlacementExpiry = 24 * time.Hour
	}
	if c.ExpirySweepEvery == 0 {
		c.ExpirySweepEvery = time.Hour
	}
	if c.CoverageRefreshEvery == 0 {
		c.CoverageRefreshEvery = 6 * time.Hour
	}
	if c.ReconcileEvery == 0 {
		c.ReconcileEvery = 24 * time.Hour
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = 5 * time.Minute
	}
	return c
}

// Runner owns the cron scheduler.
type Runner struct {
	eng       *engine.Engine
	log       *logger.Logger
	cfg       Config
	scheduler *gocron.Scheduler
}

// New creates a Runner. Nothing runs until Start.
func New(eng *engine.Engine, log *logger.Logger, cfg Config) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		eng:       eng,
		log:       log,
		cfg:       cfg.withDefaults(),
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start registers the sweeps and runs the scheduler in the background.
func (r *Runner) Start() error {
	if _, err := r.scheduler.Every(r.cfg.ExpirySweepEvery).Do(r.expirePlacements); err != nil {
		return err
	}
	if _, err := r.scheduler.Every(r.cfg.CoverageRefreshEvery).Do(r.refreshCoverage); err != nil {
		return err
	}
	if _, err := r.scheduler.Every(r.cfg.ReconcileEvery).Do(r.reconcileContent); err != nil {
		return err
	}

	r.scheduler.StartAsync()
	r.log.Info("maintenance jobs started",
		"expirySweepEvery", r.cfg.ExpirySweepEvery,
		"coverageRefreshEvery", r.cfg.CoverageRefreshEvery,
		"reconcileEvery", r.cfg.ReconcileEvery,
	)
	return nil
}

// Stop halts the scheduler, waiting for running jobs to finish.
func (r *Runner) Stop() {
	r.scheduler.Stop()
}

func (r *Runner) expirePlacements() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.JobTimeout)
	defer cancel()

	if _, err := r.eng.ExpireStalePlacements(ctx, r.cfg.PlacementExpiry); err != nil {
		r.log.Error("placement expiry sweep failed", "error", err)
	}
}

func (r *Runner) refreshCoverage() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.JobTimeout)
	defer cancel()

	if _, err := r.eng.RefreshVocabCoverage(ctx); err != nil {
		r.log.Error("coverage refresh sweep failed", "error", err)
	}
}

func (r *Runner) reconcileContent() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.JobTimeout)
	defer cancel()

	if _, err := r.eng.ReconcileContentStats(ctx); err != nil {
		r.log.Error("content reconcile sweep failed", "error", err)
	}
}
