// Package engine orchestrates the decision cores against storage. The
// cores (learner, memory, placement, selector) stay pure; the engine
// supplies durability, serializes same-key read-modify-write updates,
// and dedups concurrent generation runs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/logger"
	"github.com/sohta/kotoba/internal/memory"
	"github.com/sohta/kotoba/internal/placement"
	"github.com/sohta/kotoba/internal/runlock"
	"github.com/sohta/kotoba/internal/selector"
	"github.com/sohta/kotoba/internal/store"
)

var (
	// ErrInvalidRequest marks a request rejected before any state change.
	ErrInvalidRequest = errors.New("engine: invalid request")

	// ErrPlacementNotFound marks an unknown placement test ID.
	ErrPlacementNotFound = errors.New("engine: placement test not found")

	// ErrContentNotFound marks an unknown content ID.
	ErrContentNotFound = errors.New("engine: content not found")
)

// Config tunes the orchestration layer. Zero values produce defaults.
type Config struct {
	// MatureStabilityDays is the card stability at which an item counts
	// as known for vocabulary coverage.
	MatureStabilityDays float64 `json:"mature_stability_days"` // zero → 21

	// DueWordLimit caps how many due items are woven into generated
	// content as must-use words; the same number again may follow as
	// prefer words.
	DueWordLimit int `json:"due_word_limit"` // zero → 5

	// InterestTopicLimit caps how many profile topics steer selection.
	InterestTopicLimit int `json:"interest_topic_limit"` // zero → 3

	// VocabBudget is the default cap on new words per generated item.
	VocabBudget int `json:"vocab_budget"` // zero → 5

	// RunLockTTL bounds the cross-process generation lock.
	RunLockTTL time.Duration `json:"run_lock_ttl"` // zero → 2m

	// RunLockWait is how long a request that lost the generation lock
	// waits before selecting, giving the winner time to land content.
	RunLockWait time.Duration `json:"run_lock_wait"` // zero → 2s
}

func (c Config) withDefaults() Config {
	if c.MatureStabilityDays == 0 {
		c.MatureStabilityDays = 21
	}
	if c.DueWordLimit == 0 {
		c.DueWordLimit = 5
	}
	if c.InterestTopicLimit == 0 {
		c.InterestTopicLimit = 3
	}
	if c.VocabBudget == 0 {
		c.VocabBudget = 5
	}
	if c.RunLockTTL == 0 {
		c.RunLockTTL = 2 * time.Minute
	}
	if c.RunLockWait == 0 {
		c.RunLockWait = 2 * time.Second
	}
	return c
}

// Deps carries the engine's collaborators.
type Deps struct {
	Store     *store.Store
	Selector  *selector.Selector
	Placement *placement.Engine

	// SchedulerConfig builds the base review scheduler; per-review
	// retention overrides derive transient schedulers from it.
	SchedulerConfig memory.Config

	// Locker is optional; nil falls back to the in-process lock.
	Locker runlock.Locker

	// Logger is optional; nil discards.
	Logger *logger.Logger
}

// Engine is the orchestration facade the HTTP server and CLI talk to.
type Engine struct {
	profiles   store.ProfileRepo
	cards      store.CardRepo
	contents   store.ContentRepo
	placements store.PlacementRepo
	events     store.EventRepo

	selector  *selector.Selector
	scheduler *memory.Scheduler
	schedCfg  memory.Config
	placer    *placement.Engine
	locker    runlock.Locker
	log       *logger.Logger
	cfg       Config

	keys     keyedMutex
	genGroup singleflight.Group
	now      func() time.Time
}

// New wires an Engine from its dependencies.
func New(deps Deps, cfg Config) (*Engine, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}
	if deps.Selector == nil {
		return nil, fmt.Errorf("engine: selector is required")
	}
	if deps.Placement == nil {
		deps.Placement = placement.NewEngine(placement.Config{})
	}
	if deps.Locker == nil {
		deps.Locker = runlock.NewLocal()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	sched, err := memory.NewScheduler(deps.SchedulerConfig)
	if err != nil {
		return nil, fmt.Errorf("engine: scheduler: %w", err)
	}

	return &Engine{
		profiles:   deps.Store.ProfileRepo(),
		cards:      deps.Store.CardRepo(),
		contents:   deps.Store.ContentRepo(),
		placements: deps.Store.PlacementRepo(),
		events:     deps.Store.EventRepo(),
		selector:   deps.Selector,
		scheduler:  sched,
		schedCfg:   deps.SchedulerConfig,
		placer:     deps.Placement,
		locker:     deps.Locker,
		log:        deps.Logger,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}, nil
}

// updateProfile runs one read-modify-write cycle under the profile's key
// lock, creating the default profile lazily. A version conflict from a
// concurrent writer in another process triggers exactly one re-read.
func (e *Engine) updateProfile(ctx context.Context, userID, language string, apply func(*learner.Profile) (*learner.Profile, error)) (*learner.Profile, error) {
	unlock := e.keys.Lock("profile|" + userID + "|" + language)
	defer unlock()

	for attempt := 0; ; attempt++ {
		p, version, err := e.profiles.Get(ctx, userID, language)
		if err != nil {
			return nil, err
		}
		if p == nil {
			p = learner.NewProfile(userID, language)
		}

		updated, err := apply(p)
		if err != nil {
			return nil, err
		}

		if _, err := e.profiles.Save(ctx, updated, version); err != nil {
			var conflict *store.ErrVersionConflict
			if errors.As(err, &conflict) && attempt == 0 {
				continue
			}
			return nil, err
		}
		return updated, nil
	}
}

// appendEvent logs a domain event; telemetry failures never fail the
// request that produced them.
func (e *Engine) appendEvent(ctx context.Context, eventType, userID string, payload any) {
	if err := e.events.Append(ctx, eventType, userID, payload); err != nil {
		e.log.Warn("append event failed", "type", eventType, "error", err)
	}
}

// keyedMutex serializes work per key. Keys hash onto a fixed shard set,
// so unrelated keys rarely contend and related keys always do.
type keyedMutex struct {
	shards [64]sync.Mutex
}

func (m *keyedMutex) Lock(key string) (unlock func()) {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &m.shards[h.Sum32()%uint32(len(m.shards))]
	mu.Lock()
	return mu.Unlock
}
