package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sohta/kotoba/internal/learner"
)

// profileRepo implements ProfileRepo backed by gorm. The full domain
// profile round-trips through the State JSON column; the hoisted columns
// exist only for queries and never feed back into the domain value.
type profileRepo struct {
	db *gorm.DB
}

func (r *profileRepo) Get(ctx context.Context, userID, language string) (*learner.Profile, int64, error) {
	var rec ProfileRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND language = ?", userID, language).
		Limit(1).Find(&rec).Error
	if err != nil {
		return nil, 0, fmt.Errorf("load profile: %w", err)
	}
	if rec.ID == 0 {
		return nil, 0, nil
	}

	var p learner.Profile
	if err := json.Unmarshal(rec.State, &p); err != nil {
		return nil, 0, fmt.Errorf("decode profile state: %w", err)
	}
	return &p, rec.Version, nil
}

func (r *profileRepo) Save(ctx context.Context, p *learner.Profile, expectedVersion int64) (int64, error) {
	state, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("encode profile state: %w", err)
	}

	if expectedVersion == 0 {
		rec := ProfileRecord{
			UserID:            p.UserID,
			Language:          p.Language,
			Version:           1,
			AbilityEstimate:   p.AbilityEstimate,
			TotalStudyMinutes: p.TotalStudyMinutes,
			State:             state,
		}
		if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return 0, &ErrVersionConflict{UserID: p.UserID, Language: p.Language, Expected: 0}
			}
			return 0, fmt.Errorf("create profile: %w", err)
		}
		return 1, nil
	}

	res := r.db.WithContext(ctx).Model(&ProfileRecord{}).
		Where("user_id = ? AND language = ? AND version = ?", p.UserID, p.Language, expectedVersion).
		Updates(map[string]any{
			"version":             expectedVersion + 1,
			"ability_estimate":    p.AbilityEstimate,
			"total_study_minutes": p.TotalStudyMinutes,
			"state":               datatypes.JSON(state),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("save profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, &ErrVersionConflict{UserID: p.UserID, Language: p.Language, Expected: expectedVersion}
	}
	return expectedVersion + 1, nil
}

func (r *profileRepo) Keys(ctx context.Context) ([]ProfileKey, error) {
	var keys []ProfileKey
	err := r.db.WithContext(ctx).Model(&ProfileRecord{}).
		Select("user_id", "language").
		Order("user_id, language").
		Scan(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("list profile keys: %w", err)
	}
	return keys, nil
}
