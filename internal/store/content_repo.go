package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// contentRepo implements ContentRepo backed by gorm.
type contentRepo struct {
	db *gorm.DB
}

func (r *contentRepo) Create(ctx context.Context, rec *ContentRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create content: %w", err)
	}
	return nil
}

func (r *contentRepo) Get(ctx context.Context, id string) (*ContentRecord, error) {
	var rec ContentRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).Find(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if rec.ID == "" {
		return nil, nil
	}
	return &rec, nil
}

func (r *contentRepo) Reusable(ctx context.Context, q ReuseQuery) ([]ContentRecord, error) {
	recentlyViewed := r.db.Model(&ContentViewRecord{}).
		Select("content_id").
		Where("user_id = ? AND viewed_at > ?", q.UserID, q.ViewedSince)

	var recs []ContentRecord
	query := r.db.WithContext(ctx).
		Where("language = ? AND content_type = ?", q.Language, q.ContentType).
		Where("id NOT IN (?)", recentlyViewed).
		Order("created_at DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list reusable content: %w", err)
	}
	return recs, nil
}

func (r *contentRepo) RecordView(ctx context.Context, contentID, userID string, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view := ContentViewRecord{ContentID: contentID, UserID: userID, ViewedAt: at}
		if err := tx.Create(&view).Error; err != nil {
			return fmt.Errorf("create view: %w", err)
		}
		err := tx.Model(&ContentRecord{}).
			Where("id = ?", contentID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
		if err != nil {
			return fmt.Errorf("bump view count: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (r *contentRepo) RecordCompletion(ctx context.Context, contentID, userID string, score float64, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var view ContentViewRecord
		err := tx.
			Where("content_id = ? AND user_id = ?", contentID, userID).
			Order("viewed_at DESC").
			Limit(1).Find(&view).Error
		if err != nil {
			return fmt.Errorf("load view: %w", err)
		}

		firstCompletion := true
		if view.ID == 0 {
			// Completion reported without a served view: log the exposure.
			view = ContentViewRecord{
				ContentID: contentID,
				UserID:    userID,
				ViewedAt:  at,
				Completed: true,
				Score:     &score,
			}
			if err := tx.Create(&view).Error; err != nil {
				return fmt.Errorf("create view: %w", err)
			}
			err := tx.Model(&ContentRecord{}).
				Where("id = ?", contentID).
				UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
			if err != nil {
				return fmt.Errorf("bump view count: %w", err)
			}
		} else {
			firstCompletion = !view.Completed
			err := tx.Model(&ContentViewRecord{}).
				Where("id = ?", view.ID).
				Updates(map[string]any{"completed": true, "score": score}).Error
			if err != nil {
				return fmt.Errorf("update view: %w", err)
			}
		}

		// All expressions read the pre-update row, so the average folds in
		// the new score before the count moves.
		updates := map[string]any{
			"avg_score":   gorm.Expr("(avg_score * score_count + ?) / (score_count + 1)", score),
			"score_count": gorm.Expr("score_count + 1"),
		}
		if firstCompletion {
			updates["completed_count"] = gorm.Expr("completed_count + 1")
		}
		err = tx.Model(&ContentRecord{}).
			Where("id = ?", contentID).
			UpdateColumns(updates).Error
		if err != nil {
			return fmt.Errorf("fold score: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

func (r *contentRepo) ReconcileStats(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE contents SET
			view_count = (
				SELECT COUNT(*) FROM content_views
				WHERE content_views.content_id = contents.id),
			completed_count = (
				SELECT COUNT(*) FROM content_views
				WHERE content_views.content_id = contents.id AND content_views.completed),
			score_count = (
				SELECT COUNT(*) FROM content_views
				WHERE content_views.content_id = contents.id AND content_views.score IS NOT NULL),
			avg_score = COALESCE((
				SELECT AVG(content_views.score) FROM content_views
				WHERE content_views.content_id = contents.id AND content_views.score IS NOT NULL), 0)`)
	if res.Error != nil {
		return 0, fmt.Errorf("reconcile content stats: %w", res.Error)
	}
	return res.RowsAffected, nil
}
