package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sohta/kotoba/internal/placement"
)

// placementRepo implements PlacementRepo backed by gorm. The full test
// state round-trips through the State JSON column; status and timestamps
// are hoisted for the expiry job.
type placementRepo struct {
	db *gorm.DB
}

func (r *placementRepo) Create(ctx context.Context, t *placement.Test) error {
	rec, err := recordFromTest(t)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create placement: %w", err)
	}
	return nil
}

func (r *placementRepo) Get(ctx context.Context, id string) (*placement.Test, error) {
	var rec PlacementRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).Find(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("load placement: %w", err)
	}
	if rec.ID == "" {
		return nil, nil
	}

	var t placement.Test
	if err := json.Unmarshal(rec.State, &t); err != nil {
		return nil, fmt.Errorf("decode placement state: %w", err)
	}
	return &t, nil
}

func (r *placementRepo) Update(ctx context.Context, t *placement.Test) error {
	state, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode placement state: %w", err)
	}

	res := r.db.WithContext(ctx).Model(&PlacementRecord{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"status":       t.Status.String(),
			"state":        datatypes.JSON(state),
			"completed_at": t.CompletedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update placement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update placement: test %s not found", t.ID)
	}
	return nil
}

func (r *placementRepo) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	// The status lives both in its own column and inside the state blob,
	// so each stale test is patched individually to keep them in step.
	var expired int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recs []PlacementRecord
		err := tx.
			Where("status IN ? AND updated_at < ?",
				[]string{placement.AwaitingFirstQuestion.String(), placement.InProgress.String()},
				cutoff).
			Find(&recs).Error
		if err != nil {
			return fmt.Errorf("list stale placements: %w", err)
		}

		for _, rec := range recs {
			var t placement.Test
			if err := json.Unmarshal(rec.State, &t); err != nil {
				return fmt.Errorf("decode placement state %s: %w", rec.ID, err)
			}
			t.Status = placement.Abandoned
			state, err := json.Marshal(&t)
			if err != nil {
				return fmt.Errorf("encode placement state %s: %w", rec.ID, err)
			}
			err = tx.Model(&PlacementRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]any{
					"status": placement.Abandoned.String(),
					"state":  datatypes.JSON(state),
				}).Error
			if err != nil {
				return fmt.Errorf("expire placement %s: %w", rec.ID, err)
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

func recordFromTest(t *placement.Test) (*PlacementRecord, error) {
	state, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode placement state: %w", err)
	}
	return &PlacementRecord{
		ID:          t.ID,
		UserID:      t.UserID,
		Language:    t.Language,
		Status:      t.Status.String(),
		State:       state,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}, nil
}
