package quota

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
)

// Summary 用户本计费周期的额度与用量汇总
type Summary struct {
	Tier               entity.Tier            `json:"tier"`
	Limits             entity.Limits          `json:"limits"`
	TokensUsed         int64                  `json:"tokens_used"`
	TokensRemaining    int64                  `json:"tokens_remaining"`
	Images             ImageQuota             `json:"images"`
	SubscriptionStatus string                 `json:"subscription_status"`
	SubscriptionEnd    *time.Time             `json:"subscription_end,omitempty"`
	PeriodStart        time.Time              `json:"period_start"`
	ResetAt            time.Time              `json:"reset_at"`
	Recorded           *entity.UsageAggregate `json:"recorded"`
}

// Reporter 汇总用户计数与用量流水
type Reporter struct {
	accounter *Accounter
	usageRepo repository.TokenUsageRepository
	now       func() time.Time
}

func NewReporter(accounter *Accounter, usageRepo repository.TokenUsageRepository) *Reporter {
	return &Reporter{
		accounter: accounter,
		usageRepo: usageRepo,
		now:       time.Now,
	}
}

// Summary 并行读取用户快照与本周期流水聚合
func (r *Reporter) Summary(ctx context.Context, userID string) (*Summary, error) {
	now := r.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := entity.NextResetDate(now)

	var (
		user   *entity.User
		limits entity.Limits
		agg    *entity.UsageAggregate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, limits, err = r.accounter.Limits(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		agg, err = r.usageRepo.Aggregate(gctx, userID, start, end)
		if err != nil {
			return fmt.Errorf("aggregate usage: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resetAt := end
	if user.UsageResetDate != nil {
		resetAt = user.UsageResetDate.UTC()
	}
	return &Summary{
		Tier:            limits.Tier,
		Limits:          limits,
		TokensUsed:      user.TokenUsageThisMonth,
		TokensRemaining: entity.Remaining(user.TokenUsageThisMonth, limits.TokenLimit),
		Images: ImageQuota{
			HasQuota:  entity.Fits(user.ImageUsageThisMonth, 1, limits.ImageLimit),
			Used:      user.ImageUsageThisMonth,
			Limit:     limits.ImageLimit,
			Remaining: entity.Remaining(user.ImageUsageThisMonth, limits.ImageLimit),
			Tier:      limits.Tier,
		},
		SubscriptionStatus: user.SubscriptionStatus,
		SubscriptionEnd:    user.SubscriptionEndDate,
		PeriodStart:        start,
		ResetAt:            resetAt,
		Recorded:           agg,
	}, nil
}

// History 分页列出用量流水
func (r *Reporter) History(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.TokenUsageRecord], error) {
	return r.usageRepo.ListByUser(ctx, userID, pagination)
}
