// Package quota 提供用户月度配额的预占、归还与查询
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

// TierResolver 订阅等级解析
type TierResolver interface {
	Resolve(user *entity.User, now time.Time) entity.Limits
}

// Reservation 一次预占的结果
type Reservation struct {
	Allowed bool
	UserID  string
	Tokens  int64
	Images  int64
	Limits  entity.Limits
	// Cycle 预占所属的计费周期
	Cycle int64
	// User 为预占后的用户快照；被拒绝时计数保持原值
	User *entity.User
}

// Denial 生成被拒绝原因；Allowed 时返回 nil
func (r *Reservation) Denial() error {
	if r == nil || r.Allowed {
		return nil
	}
	e := &ExceededError{UserID: r.UserID, Tier: string(r.Limits.Tier)}
	e.Resource, e.Used, e.Requested, e.Limit = ResourceTokens, r.User.TokenUsageThisMonth, r.Tokens, r.Limits.TokenLimit
	// 快照读取后可能有并发写入，快照看似仍有余量时归因到 token
	if entity.Fits(r.User.TokenUsageThisMonth, r.Tokens, r.Limits.TokenLimit) &&
		!entity.Fits(r.User.ImageUsageThisMonth, r.Images, r.Limits.ImageLimit) {
		e.Resource, e.Used, e.Requested, e.Limit = ResourceImages, r.User.ImageUsageThisMonth, r.Images, r.Limits.ImageLimit
	}
	return e
}

// ImageQuota 图片额度只读视图
type ImageQuota struct {
	HasQuota  bool        `json:"has_quota"`
	Used      int64       `json:"used"`
	Limit     int64       `json:"limit"`
	Remaining int64       `json:"remaining"`
	Tier      entity.Tier `json:"tier"`
}

// accountingTimeout 归还与流水写入脱离请求上下文后的超时
const accountingTimeout = 5 * time.Second

// Accounter 配额记账器
type Accounter struct {
	users    repository.UserRepository
	resolver TierResolver
	now      func() time.Time
}

func NewAccounter(users repository.UserRepository, resolver TierResolver) *Accounter {
	return &Accounter{
		users:    users,
		resolver: resolver,
		now:      time.Now,
	}
}

// CheckAndReserve 检查并原子地累加用量。
// 非 admin 用户的检查与累加由存储层的一条条件更新完成，拒绝时计数不变；
// admin 始终放行，但计数仍然累加以便统计。
func (a *Accounter) CheckAndReserve(ctx context.Context, userID string, tokens, images int64) (*Reservation, error) {
	if tokens < 0 || images < 0 {
		return nil, ErrInvalidDelta
	}

	user, err := a.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits, ok, err := a.reserve(ctx, user, tokens, images)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 读取快照后恰逢月度重置，按新周期的快照重试一次
		fresh, err := a.loadUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if fresh.UsageCycle != user.UsageCycle {
			user = fresh
			if limits, ok, err = a.reserve(ctx, user, tokens, images); err != nil {
				return nil, err
			}
		}
	}
	if !ok && limits.Tier == entity.TierAdmin {
		logger.Warn(ctx, "admin usage increment affected no rows", "user_id", userID)
		ok = true
	}

	res := &Reservation{
		Allowed: ok,
		UserID:  userID,
		Tokens:  tokens,
		Images:  images,
		Limits:  limits,
		Cycle:   user.UsageCycle,
		User:    user,
	}
	if ok {
		user.TokenUsageThisMonth += tokens
		user.ImageUsageThisMonth += images
		metrics.QuotaChecksTotal.WithLabelValues(string(limits.Tier), "allowed").Inc()
	} else {
		metrics.QuotaChecksTotal.WithLabelValues(string(limits.Tier), "denied").Inc()
		logger.Info(ctx, "quota reservation denied",
			"user_id", userID,
			"tier", limits.Tier,
			"tokens_used", user.TokenUsageThisMonth,
			"tokens_requested", tokens,
			"images_used", user.ImageUsageThisMonth,
			"images_requested", images,
		)
	}
	return res, nil
}

func (a *Accounter) reserve(ctx context.Context, user *entity.User, tokens, images int64) (entity.Limits, bool, error) {
	limits := a.resolver.Resolve(user, a.now())
	ok, err := a.users.ReserveUsage(ctx, user.ID, repository.UsageDelta{
		Tokens:     tokens,
		Images:     images,
		TokenLimit: limits.TokenLimit,
		ImageLimit: limits.ImageLimit,
		Cycle:      user.UsageCycle,
	})
	if err != nil {
		metrics.QuotaChecksTotal.WithLabelValues(string(limits.Tier), "error").Inc()
		return limits, false, fmt.Errorf("reserve usage: %w", err)
	}
	return limits, ok, nil
}

// Release 归还整笔预占，用于上游调用失败的场景
func (a *Accounter) Release(ctx context.Context, res *Reservation) {
	if res == nil || !res.Allowed {
		return
	}
	a.release(ctx, res, res.Tokens, res.Images)
}

// Settle 实际消耗低于预估时归还差额，超出部分不追加扣减
func (a *Accounter) Settle(ctx context.Context, res *Reservation, actualTokens int64) {
	if res == nil || !res.Allowed || actualTokens >= res.Tokens {
		return
	}
	if actualTokens < 0 {
		actualTokens = 0
	}
	a.release(ctx, res, res.Tokens-actualTokens, 0)
}

// release 在脱离请求取消的上下文中归还，客户端断开不影响退款
func (a *Accounter) release(ctx context.Context, res *Reservation, tokens, images int64) {
	if tokens == 0 && images == 0 {
		return
	}
	ctx, cancel := Detach(ctx)
	defer cancel()

	ok, err := a.users.ReleaseUsage(ctx, res.UserID, repository.UsageRelease{
		Tokens: tokens,
		Images: images,
		Cycle:  res.Cycle,
	})
	if err != nil {
		logger.Error(ctx, "failed to release reserved usage", err,
			"user_id", res.UserID, "tokens", tokens, "images", images)
		return
	}
	if !ok {
		logger.Info(ctx, "usage cycle rolled over, release skipped",
			"user_id", res.UserID, "cycle", res.Cycle, "tokens", tokens, "images", images)
	}
}

// Detach 保留 ctx 中的值 (trace、日志字段)，去掉取消信号并设置独立超时
func Detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), accountingTimeout)
}

// CheckImageQuota 只读地查询图片额度
func (a *Accounter) CheckImageQuota(ctx context.Context, userID string) (*ImageQuota, error) {
	user, err := a.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := a.resolver.Resolve(user, a.now())
	return &ImageQuota{
		HasQuota:  entity.Fits(user.ImageUsageThisMonth, 1, limits.ImageLimit),
		Used:      user.ImageUsageThisMonth,
		Limit:     limits.ImageLimit,
		Remaining: entity.Remaining(user.ImageUsageThisMonth, limits.ImageLimit),
		Tier:      limits.Tier,
	}, nil
}

// Limits 返回用户当前等级及快照
func (a *Accounter) Limits(ctx context.Context, userID string) (*entity.User, entity.Limits, error) {
	user, err := a.loadUser(ctx, userID)
	if err != nil {
		return nil, entity.Limits{}, err
	}
	return user, a.resolver.Resolve(user, a.now()), nil
}

func (a *Accounter) loadUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// EstimateTokens 粗略估算一次文本调用的 token 上限：提示词按 4 字符/token，加上输出上限
func EstimateTokens(prompt string, maxOutputTokens int) int64 {
	n := int64(len([]rune(prompt))+3) / 4
	if maxOutputTokens > 0 {
		n += int64(maxOutputTokens)
	}
	return n
}
