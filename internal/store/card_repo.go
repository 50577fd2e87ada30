package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sohta/kotoba/internal/memory"
)

// cardRepo implements CardRepo backed by gorm.
type cardRepo struct {
	db *gorm.DB
}

func (r *cardRepo) Get(ctx context.Context, userID, itemID string) (*memory.Card, error) {
	var rec CardRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Limit(1).Find(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("load card: %w", err)
	}
	if rec.ID == 0 {
		return nil, nil
	}
	card := cardFromRecord(rec)
	return &card, nil
}

func (r *cardRepo) Save(ctx context.Context, userID, language string, card memory.Card) error {
	rec := recordFromCard(userID, language, card)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"language", "difficulty", "stability", "reps", "lapses",
			"last_review", "due", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

func (r *cardRepo) Seed(ctx context.Context, userID, language string, cards []memory.Card) error {
	if len(cards) == 0 {
		return nil
	}
	recs := make([]CardRecord, len(cards))
	for i, c := range cards {
		recs[i] = recordFromCard(userID, language, c)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoNothing: true,
	}).Create(&recs).Error
	if err != nil {
		return fmt.Errorf("seed cards: %w", err)
	}
	return nil
}

func (r *cardRepo) Due(ctx context.Context, userID, language string, now time.Time, limit int) ([]memory.Card, error) {
	var recs []CardRecord
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND language = ? AND due <= ?", userID, language, now).
		Order("due ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}

	cards := make([]memory.Card, len(recs))
	for i, rec := range recs {
		cards[i] = cardFromRecord(rec)
	}
	return cards, nil
}

func (r *cardRepo) KnownItems(ctx context.Context, userID, language string, minStability float64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&CardRecord{}).
		Where("user_id = ? AND language = ? AND stability >= ?", userID, language, minStability).
		Pluck("item_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list known items: %w", err)
	}
	return ids, nil
}

func (r *cardRepo) Stats(ctx context.Context, userID, language string, matureStability float64) (CardStats, error) {
	var stats CardStats
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&CardRecord{}).
			Where("user_id = ? AND language = ?", userID, language)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return CardStats{}, fmt.Errorf("count cards: %w", err)
	}
	if err := base().Where("reps > 0").Count(&stats.Reviewed).Error; err != nil {
		return CardStats{}, fmt.Errorf("count reviewed cards: %w", err)
	}
	if err := base().Where("reps > 0 AND stability >= ?", matureStability).Count(&stats.Mature).Error; err != nil {
		return CardStats{}, fmt.Errorf("count mature cards: %w", err)
	}
	return stats, nil
}

func recordFromCard(userID, language string, c memory.Card) CardRecord {
	rec := CardRecord{
		UserID:     userID,
		ItemID:     c.ItemID,
		Language:   language,
		Difficulty: c.Difficulty,
		Stability:  c.Stability,
		Reps:       c.Reps,
		Lapses:     c.Lapses,
		Due:        c.Due,
	}
	if !c.LastReview.IsZero() {
		t := c.LastReview
		rec.LastReview = &t
	}
	return rec
}

func cardFromRecord(rec CardRecord) memory.Card {
	c := memory.Card{
		ItemID:     rec.ItemID,
		Difficulty: rec.Difficulty,
		Stability:  rec.Stability,
		Reps:       rec.Reps,
		Lapses:     rec.Lapses,
		Due:        rec.Due,
	}
	if rec.LastReview != nil {
		c.LastReview = *rec.LastReview
	}
	return c
}
