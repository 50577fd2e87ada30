package store

import (
	"context"
	"time"

	"github.com/sohta/kotoba/internal/learner"
	"github.com/sohta/kotoba/internal/memory"
	"github.com/sohta/kotoba/internal/placement"
)

// ProfileKey identifies one stored profile.
type ProfileKey struct {
	UserID   string
	Language string
}

// ProfileRepo persists learner profiles keyed by (user, language).
//
// Get returns the profile and its version, or (nil, 0, nil) when no
// profile exists; callers create defaults lazily. Save enforces
// optimistic concurrency: pass the version returned by Get (0 for a new
// profile) and receive the new version, or *ErrVersionConflict when
// another writer got there first.
type ProfileRepo interface {
	Get(ctx context.Context, userID, language string) (*learner.Profile, int64, error)
	Save(ctx context.Context, p *learner.Profile, expectedVersion int64) (int64, error)

	// Keys lists every stored (user, language) pair, for maintenance
	// sweeps.
	Keys(ctx context.Context) ([]ProfileKey, error)
}

// CardStats summarizes one learner's card population for coverage
// classification: Mature cards count as known, Reviewed-but-not-mature
// as learning.
type CardStats struct {
	Total    int64
	Reviewed int64
	Mature   int64
}

// CardRepo persists memory cards keyed by (user, item).
type CardRepo interface {
	// Get returns the card, or nil when the learner has never seen the item.
	Get(ctx context.Context, userID, itemID string) (*memory.Card, error)

	// Save inserts or updates the card.
	Save(ctx context.Context, userID, language string, card memory.Card) error

	// Seed inserts cards for items the learner has not seen, silently
	// skipping any that already exist so review progress is never reset.
	Seed(ctx context.Context, userID, language string, cards []memory.Card) error

	// Due returns cards due at now, most overdue first. limit <= 0 means
	// no limit.
	Due(ctx context.Context, userID, language string, now time.Time, limit int) ([]memory.Card, error)

	// KnownItems returns the item IDs whose stability has reached
	// minStability, for building known-word predicates.
	KnownItems(ctx context.Context, userID, language string, minStability float64) ([]string, error)

	// Stats counts the learner's cards, with maturity split at
	// matureStability days.
	Stats(ctx context.Context, userID, language string, matureStability float64) (CardStats, error)
}

// ReuseQuery selects reusable content for one learner: same language and
// type, excluding anything the learner viewed since ViewedSince.
type ReuseQuery struct {
	UserID      string
	Language    string
	ContentType string
	ViewedSince time.Time
	Limit       int
}

// ContentRepo persists generated content and per-learner view history,
// and maintains the aggregates reuse scoring reads.
type ContentRepo interface {
	Create(ctx context.Context, rec *ContentRecord) error

	// Get returns the content, or nil when the ID is unknown.
	Get(ctx context.Context, id string) (*ContentRecord, error)

	// Reusable returns candidate records for reuse scoring.
	Reusable(ctx context.Context, q ReuseQuery) ([]ContentRecord, error)

	// RecordView logs that the learner was served the content.
	RecordView(ctx context.Context, contentID, userID string, at time.Time) error

	// RecordCompletion marks the learner's latest view completed with a
	// score in [0, 100] and folds the score into the content's running
	// average.
	RecordCompletion(ctx context.Context, contentID, userID string, score float64, at time.Time) error

	// ReconcileStats recomputes every content's aggregates from the view
	// log and returns the number of rows touched.
	ReconcileStats(ctx context.Context) (int64, error)
}

// PlacementRepo persists placement tests.
type PlacementRepo interface {
	Create(ctx context.Context, t *placement.Test) error

	// Get returns the test, or nil when the ID is unknown.
	Get(ctx context.Context, id string) (*placement.Test, error)

	// Update overwrites the stored test state.
	Update(ctx context.Context, t *placement.Test) error

	// ExpireStale abandons active tests with no activity since cutoff and
	// returns how many were expired.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Event types stored in the event log.
const (
	EventLLMRequest         = "llm_request"
	EventInteraction        = "interaction"
	EventContentServed      = "content_served"
	EventReview             = "review"
	EventPlacementStarted   = "placement_started"
	EventPlacementCompleted = "placement_completed"
)

// LLMRequestEventData is everything recorded about one LLM call.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMTotals aggregates the LLM request log.
type LLMTotals struct {
	Requests     int64
	Failures     int64
	InputTokens  int64
	OutputTokens int64
}

// QueryOpts narrows event queries by time window, ID cursor and row
// count.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	Before uint      // record ID < Before
	From   time.Time // created_at >= From
	To     time.Time // created_at <= To
}

// LLMUsageStats aggregates the LLM request log along one grouping
// column; Purpose is set when grouping by purpose, Model when grouping
// by model.
type LLMUsageStats struct {
	Purpose      string
	Model        string
	Calls        int64
	InputTokens  int64
	OutputTokens int64
	AvgLatencyMs int64
}

// EventRepo provides append and aggregate access to the event log. The
// autoincrement record ID is the global sequence: events of every type
// share one table, so insertion order is total.
type EventRepo interface {
	// AppendLLMRequest appends one LLM call to the event log.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// Append records a domain event with a JSON payload.
	Append(ctx context.Context, eventType, userID string, payload any) error

	// LLMTotals aggregates LLM request events at or after since
	// (zero time = all).
	LLMTotals(ctx context.Context, since time.Time) (LLMTotals, error)

	// CountByType counts events per type at or after since.
	CountByType(ctx context.Context, since time.Time) (map[string]int64, error)

	// QueryLLMEvents returns LLM request events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]EventRecord, error)

	// GetLLMEvent returns one LLM request event, or nil when the ID is
	// unknown or belongs to a different event type.
	GetLLMEvent(ctx context.Context, id uint) (*EventRecord, error)

	// LLMUsageByPurpose aggregates calls, tokens and latency per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates calls, tokens and latency per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error)
}
