// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"storyforge-ai-api/internal/domain/entity"
)

// UsageDelta 一次预占的用量增量及对应上限，上限为负表示不限
type UsageDelta struct {
	Tokens     int64
	Images     int64
	TokenLimit int64
	ImageLimit int64
	// Cycle 预占所属的计费周期，与用户行的 usage_cycle 不一致时不更新
	Cycle int64
}

// UsageRelease 归还一次预占，仅在同一计费周期内生效
type UsageRelease struct {
	Tokens int64
	Images int64
	Cycle  int64
}

// SubscriptionUpdate 支付成功后写入用户行的订阅字段
type SubscriptionUpdate struct {
	Status    string
	Plan      string
	StartDate time.Time
	EndDate   time.Time
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户
	Create(ctx context.Context, user *entity.User) error

	// GetByID 根据 ID 获取用户，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// ReserveUsage 以单条条件更新完成检查与累加，返回是否成功
	ReserveUsage(ctx context.Context, id string, delta UsageDelta) (bool, error)

	// ReleaseUsage 归还预占的用量，计数不会小于零；周期已滚动时返回 false
	ReleaseUsage(ctx context.Context, id string, release UsageRelease) (bool, error)

	// ApplySubscription 更新订阅字段
	ApplySubscription(ctx context.Context, id string, update SubscriptionUpdate) error

	// ResetExpiredUsage 将重置日早于 now 的用户计数清零，推进 usage_cycle 并设置下一个重置日
	ResetExpiredUsage(ctx context.Context, now, next time.Time, batchSize int) (int64, error)
}
