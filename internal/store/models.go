package store

import (
	"time"

	"gorm.io/datatypes"
)

// ProfileRecord persists one learner profile per (user, language). The
// full domain profile lives in State as JSON so no field is ever dropped
// on round trip; ability and study minutes are hoisted for queries.
type ProfileRecord struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   string `gorm:"not null;index:idx_profile_user_lang,unique,priority:1"`
	Language string `gorm:"not null;index:idx_profile_user_lang,unique,priority:2"`

	// Version is the optimistic-concurrency token: saves carry the
	// version they read and fail on mismatch.
	Version int64 `gorm:"not null;default:0"`

	AbilityEstimate   float64        `gorm:"not null;default:0"`
	TotalStudyMinutes float64        `gorm:"not null;default:0"`
	State             datatypes.JSON `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ProfileRecord) TableName() string { return "profiles" }

// CardRecord persists one memory state per (user, item).
type CardRecord struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   string `gorm:"not null;index:idx_card_user_item,unique,priority:1"`
	ItemID   string `gorm:"not null;index:idx_card_user_item,unique,priority:2"`
	Language string `gorm:"not null;index"`

	Difficulty float64    `gorm:"not null;default:0"`
	Stability  float64    `gorm:"not null;default:0"`
	Reps       int        `gorm:"not null;default:0"`
	Lapses     int        `gorm:"not null;default:0"`
	LastReview *time.Time `gorm:""`
	Due        time.Time  `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (CardRecord) TableName() string { return "cards" }

// ContentRecord persists one piece of content plus the running
// aggregates reuse scoring reads (historical score, view counters).
type ContentRecord struct {
	ID          string `gorm:"primaryKey"`
	Language    string `gorm:"not null;index:idx_content_lang_type,priority:1"`
	ContentType string `gorm:"not null;index:idx_content_lang_type,priority:2"`

	Title       string         `gorm:"not null"`
	Body        string         `gorm:"not null"`
	Translation string         `gorm:""`
	Vocabulary  datatypes.JSON `gorm:""`
	GrammarTags datatypes.JSON `gorm:""`
	TopicTags   datatypes.JSON `gorm:""`
	WordCount   int            `gorm:"not null;default:0"`
	Difficulty  float64        `gorm:"not null;default:0"`
	Level       string         `gorm:""`

	// Source records how the content came to exist (generated, seeded);
	// Model is the model that generated it.
	Source string `gorm:"not null"`
	Model  string `gorm:""`

	// Aggregates maintained on view/score events. AvgScore is the
	// running mean of learner scores (0..100) on this item.
	AvgScore       float64 `gorm:"not null;default:0"`
	ScoreCount     int     `gorm:"not null;default:0"`
	ViewCount      int     `gorm:"not null;default:0"`
	CompletedCount int     `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ContentRecord) TableName() string { return "contents" }

// ContentViewRecord is one learner's exposure to one content item. The
// reuse recency window and the stat reconciliation job both read it.
type ContentViewRecord struct {
	ID        uint      `gorm:"primaryKey"`
	ContentID string    `gorm:"not null;index:idx_view_content_user,priority:1"`
	UserID    string    `gorm:"not null;index:idx_view_content_user,priority:2;index:idx_view_user_time,priority:1"`
	ViewedAt  time.Time `gorm:"not null;index:idx_view_user_time,priority:2"`
	Completed bool      `gorm:"not null;default:false"`
	Score     *float64  `gorm:""`
}

func (ContentViewRecord) TableName() string { return "content_views" }

// PlacementRecord persists one placement test. The full test state lives
// in State as JSON; status and timestamps are hoisted for the stale-test
// expiry job.
type PlacementRecord struct {
	ID       string `gorm:"primaryKey"`
	UserID   string `gorm:"not null;index"`
	Language string `gorm:"not null"`
	Status   string `gorm:"not null;index"`

	State datatypes.JSON `gorm:"not null"`

	StartedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null;index"`
	CompletedAt *time.Time `gorm:""`
}

func (PlacementRecord) TableName() string { return "placements" }

// EventRecord is the append-only event log: LLM calls and domain
// milestones share one table, discriminated by Type. The autoincrement
// ID doubles as the global sequence.
type EventRecord struct {
	ID     uint   `gorm:"primaryKey"`
	Type   string `gorm:"not null;index"`
	UserID string `gorm:"index"`

	// LLM request fields; empty for domain events.
	Provider     string `gorm:""`
	Model        string `gorm:""`
	Purpose      string `gorm:""`
	InputTokens  int    `gorm:"not null;default:0"`
	OutputTokens int    `gorm:"not null;default:0"`
	LatencyMs    int64  `gorm:"not null;default:0"`
	Success      bool   `gorm:"not null;default:true"`
	ErrorMessage string `gorm:""`
	RequestBody  string `gorm:""`
	ResponseBody string `gorm:""`

	// Payload carries domain event data as JSON.
	Payload datatypes.JSON `gorm:""`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (EventRecord) TableName() string { return "events" }
