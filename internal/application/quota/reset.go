package quota

import (
	"context"
	"fmt"
	"time"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/metrics"
)

const defaultResetBatchSize = 500

// Resetter 月度计数清零任务
type Resetter struct {
	users     repository.UserRepository
	batchSize int
	now       func() time.Time
}

func NewResetter(users repository.UserRepository, batchSize int) *Resetter {
	if batchSize <= 0 {
		batchSize = defaultResetBatchSize
	}
	return &Resetter{
		users:     users,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// RunOnce 分批清零所有到期用户，返回清零人数
func (r *Resetter) RunOnce(ctx context.Context) (int64, error) {
	now := r.now().UTC()
	next := entity.NextResetDate(now)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := r.users.ResetExpiredUsage(ctx, now, next, r.batchSize)
		if err != nil {
			return total, fmt.Errorf("reset expired usage: %w", err)
		}
		total += n
		metrics.UsageResetUsers.Add(float64(n))
		if n < int64(r.batchSize) {
			break
		}
	}

	logger.Info(ctx, "monthly usage reset finished", "users", total, "next_reset", next)
	return total, nil
}

// Run 按间隔循环执行，interval 为 0 时只执行一次
func (r *Resetter) Run(ctx context.Context, interval time.Duration) error {
	if _, err := r.RunOnce(ctx); err != nil {
		if interval <= 0 {
			return err
		}
		logger.Error(ctx, "monthly usage reset failed", err)
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Error(ctx, "monthly usage reset failed", err)
			}
		}
	}
}
