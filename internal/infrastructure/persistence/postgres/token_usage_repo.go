// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
)

// TokenUsageRepository 用量流水仓储，只追加
type TokenUsageRepository struct {
	client *Client
}

var _ repository.TokenUsageRepository = (*TokenUsageRepository)(nil)

func NewTokenUsageRepository(client *Client) *TokenUsageRepository {
	return &TokenUsageRepository{client: client}
}

func (r *TokenUsageRepository) Create(ctx context.Context, record *entity.TokenUsageRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.TokenUsageRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create token usage record: %w", err)
	}
	return nil
}

// Aggregate 汇总 [start, end) 区间内的用量
func (r *TokenUsageRepository) Aggregate(ctx context.Context, userID string, startInclusive, endExclusive time.Time) (*entity.UsageAggregate, error) {
	ctx, span := tracer.Start(ctx, "postgres.TokenUsageRepository.Aggregate")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var agg entity.UsageAggregate
	if err := db.Model(&entity.TokenUsageRecord{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, startInclusive, endExclusive).
		Select(`COUNT(*) AS requests,
			COALESCE(SUM(prompt_tokens), 0) AS prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) AS completion_tokens,
			COALESCE(SUM(tokens), 0) AS tokens,
			COALESCE(SUM(images), 0) AS images,
			COALESCE(SUM(cost), 0) AS cost`).
		Scan(&agg).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to aggregate token usage: %w", err)
	}
	return &agg, nil
}

// ListByUser 按时间倒序分页
func (r *TokenUsageRepository) ListByUser(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.TokenUsageRecord], error) {
	ctx, span := tracer.Start(ctx, "postgres.TokenUsageRepository.ListByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	base := db.Model(&entity.TokenUsageRecord{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count token usage records: %w", err)
	}

	var records []*entity.TokenUsageRecord
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list token usage records: %w", err)
	}
	return repository.NewPagedResult(records, total, pagination), nil
}
