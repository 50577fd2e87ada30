package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// eventRepo implements EventRepo backed by gorm.
type eventRepo struct {
	db *gorm.DB
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	rec := EventRecord{
		Type:         EventLLMRequest,
		Provider:     data.Provider,
		Model:        data.Model,
		Purpose:      data.Purpose,
		InputTokens:  data.InputTokens,
		OutputTokens: data.OutputTokens,
		LatencyMs:    data.LatencyMs,
		Success:      data.Success,
		ErrorMessage: data.ErrorMessage,
		RequestBody:  data.RequestBody,
		ResponseBody: data.ResponseBody,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) Append(ctx context.Context, eventType, userID string, payload any) error {
	rec := EventRecord{
		Type:    eventType,
		UserID:  userID,
		Success: true,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode event payload: %w", err)
		}
		rec.Payload = data
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("save %s event: %w", eventType, err)
	}
	return nil
}

func (r *eventRepo) LLMTotals(ctx context.Context, since time.Time) (LLMTotals, error) {
	var totals LLMTotals
	q := r.db.WithContext(ctx).Model(&EventRecord{}).
		Where("type = ?", EventLLMRequest)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Select(
		"COUNT(*) AS requests, " +
			"COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) AS failures, " +
			"COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS output_tokens").
		Scan(&totals).Error
	if err != nil {
		return LLMTotals{}, fmt.Errorf("aggregate LLM events: %w", err)
	}
	return totals, nil
}

func (r *eventRepo) CountByType(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Type string
		N    int64
	}
	q := r.db.WithContext(ctx).Model(&EventRecord{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Select("type, COUNT(*) AS n").Group("type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.N
	}
	return counts, nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]EventRecord, error) {
	q := r.db.WithContext(ctx).
		Where("type = ?", EventLLMRequest).
		Order("id DESC")
	if opts.Before > 0 {
		q = q.Where("id < ?", opts.Before)
	}
	if !opts.From.IsZero() {
		q = q.Where("created_at >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("created_at <= ?", opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var events []EventRecord
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return events, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id uint) (*EventRecord, error) {
	var rec EventRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND type = ?", id, EventLLMRequest).
		Limit(1).Find(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("load LLM event %d: %w", id, err)
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

// usageSelect aggregates one grouping column over the LLM request log.
const usageSelect = "COUNT(*) AS calls, " +
	"COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
	"COALESCE(SUM(output_tokens), 0) AS output_tokens, " +
	"COALESCE(CAST(AVG(latency_ms) AS INTEGER), 0) AS avg_latency_ms"

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	var stats []LLMUsageStats
	err := r.db.WithContext(ctx).Model(&EventRecord{}).
		Where("type = ?", EventLLMRequest).
		Select("purpose, " + usageSelect).
		Group("purpose").
		Order("calls DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by purpose: %w", err)
	}
	return stats, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error) {
	var stats []LLMUsageStats
	err := r.db.WithContext(ctx).Model(&EventRecord{}).
		Where("type = ?", EventLLMRequest).
		Select("model, " + usageSelect).
		Group("model").
		Order("calls DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by model: %w", err)
	}
	return stats, nil
}
