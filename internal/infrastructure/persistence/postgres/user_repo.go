// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
)

// UserRepository 用户仓储实现
type UserRepository struct {
	client *Client
	now    func() time.Time
}

var _ repository.UserRepository = (*UserRepository)(nil)

// NewUserRepository 创建用户仓储
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client, now: time.Now}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(user).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var user entity.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.GetByEmail")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var user entity.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// ReserveUsage 单条条件更新：
// UPDATE users SET t = t + ?, i = i + ? WHERE id = ? AND usage_cycle = ? AND t + ? <= ? AND i + ? <= ?
// 上限为负时省略对应条件。影响行数为 0 表示额度不足、周期已滚动或用户不存在。
func (r *UserRepository) ReserveUsage(ctx context.Context, id string, delta repository.UsageDelta) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.ReserveUsage")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("quota.tokens", delta.Tokens),
		attribute.Int64("quota.images", delta.Images),
		attribute.Int64("quota.token_limit", delta.TokenLimit),
		attribute.Int64("quota.image_limit", delta.ImageLimit),
	)

	db := getDB(ctx, r.client.db)
	q := db.Model(&entity.User{}).Where("id = ? AND usage_cycle = ?", id, delta.Cycle)
	if delta.TokenLimit >= 0 {
		q = q.Where("token_usage_this_month + ? <= ?", delta.Tokens, delta.TokenLimit)
	}
	if delta.ImageLimit >= 0 {
		q = q.Where("image_usage_this_month + ? <= ?", delta.Images, delta.ImageLimit)
	}
	res := q.UpdateColumns(map[string]any{
		"token_usage_this_month": gorm.Expr("token_usage_this_month + ?", delta.Tokens),
		"image_usage_this_month": gorm.Expr("image_usage_this_month + ?", delta.Images),
		"updated_at":             r.now(),
	})
	if res.Error != nil {
		span.RecordError(res.Error)
		return false, fmt.Errorf("failed to reserve usage: %w", res.Error)
	}

	allowed := res.RowsAffected > 0
	span.SetAttributes(attribute.Bool("quota.allowed", allowed))
	return allowed, nil
}

// ReleaseUsage 在预占所属周期内归还用量，计数下限为 0。
// 周期已被重置时不做任何修改，上一周期的退款不会冲减新周期的计数。
func (r *UserRepository) ReleaseUsage(ctx context.Context, id string, rel repository.UsageRelease) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.ReleaseUsage")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("quota.tokens", rel.Tokens),
		attribute.Int64("quota.images", rel.Images),
		attribute.Int64("quota.cycle", rel.Cycle),
	)

	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.User{}).Where("id = ? AND usage_cycle = ?", id, rel.Cycle).UpdateColumns(map[string]any{
		"token_usage_this_month": gorm.Expr("CASE WHEN token_usage_this_month > ? THEN token_usage_this_month - ? ELSE 0 END", rel.Tokens, rel.Tokens),
		"image_usage_this_month": gorm.Expr("CASE WHEN image_usage_this_month > ? THEN image_usage_this_month - ? ELSE 0 END", rel.Images, rel.Images),
		"updated_at":             r.now(),
	})
	if res.Error != nil {
		span.RecordError(res.Error)
		return false, fmt.Errorf("failed to release usage: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ApplySubscription 写入订阅字段
func (r *UserRepository) ApplySubscription(ctx context.Context, id string, update repository.SubscriptionUpdate) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.ApplySubscription")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Model(&entity.User{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"subscription_status":     update.Status,
		"subscription_plan":       update.Plan,
		"subscription_start_date": update.StartDate,
		"subscription_end_date":   update.EndDate,
		"updated_at":              r.now(),
	})
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to apply subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// ResetExpiredUsage 分批清零到期用户的月度计数，返回本批处理数量
func (r *UserRepository) ResetExpiredUsage(ctx context.Context, now, next time.Time, batchSize int) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.ResetExpiredUsage")
	defer span.End()

	if batchSize <= 0 {
		batchSize = 500
	}
	db := getDB(ctx, r.client.db)
	due := db.Model(&entity.User{}).
		Select("id").
		Where("usage_reset_date IS NULL OR usage_reset_date <= ?", now).
		Limit(batchSize)

	res := db.Model(&entity.User{}).Where("id IN (?)", due).UpdateColumns(map[string]any{
		"token_usage_this_month": 0,
		"image_usage_this_month": 0,
		"usage_cycle":            gorm.Expr("usage_cycle + 1"),
		"usage_reset_date":       next,
		"updated_at":             now,
	})
	if res.Error != nil {
		span.RecordError(res.Error)
		return 0, fmt.Errorf("failed to reset usage: %w", res.Error)
	}
	span.SetAttributes(attribute.Int64("quota.reset_users", res.RowsAffected))
	return res.RowsAffected, nil
}
