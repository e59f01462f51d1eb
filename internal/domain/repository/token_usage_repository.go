// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"storyforge-ai-api/internal/domain/entity"
)

// TokenUsageRepository 用量流水仓储
type TokenUsageRepository interface {
	Create(ctx context.Context, record *entity.TokenUsageRecord) error
	Aggregate(ctx context.Context, userID string, startInclusive, endExclusive time.Time) (*entity.UsageAggregate, error)
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.TokenUsageRecord], error)
}
