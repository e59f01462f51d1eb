// Package story 提供受配额约束的剧本创作用例：项目、文本生成、分镜与对话
package story

import (
	"context"
	"time"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/internal/domain/service"
	"storyforge-ai-api/internal/infrastructure/llm"
	"storyforge-ai-api/internal/workflow/prompt"
	"storyforge-ai-api/pkg/logger"
)

// Service 创作用例编排
type Service struct {
	accounter *quota.Accounter
	recorder  service.UsageRecorder
	projects  repository.ProjectRepository
	text      llm.TextGenerator
	images    llm.ImageGenerator
	prompts   *prompt.Registry
	now       func() time.Time
}

func NewService(
	accounter *quota.Accounter,
	recorder service.UsageRecorder,
	projects repository.ProjectRepository,
	text llm.TextGenerator,
	images llm.ImageGenerator,
	prompts *prompt.Registry,
) *Service {
	return &Service{
		accounter: accounter,
		recorder:  recorder,
		projects:  projects,
		text:      text,
		images:    images,
		prompts:   prompts,
		now:       time.Now,
	}
}

// ownedProject 读取项目并校验归属，他人项目同样视为不存在
func (s *Service) ownedProject(ctx context.Context, userID, projectID string) (*entity.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.OwnedBy(userID) {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

// reserveText 预占文本额度，被拒绝时返回 *quota.ExceededError
func (s *Service) reserveText(ctx context.Context, userID string, estimate int64) (*quota.Reservation, error) {
	res, err := s.accounter.CheckAndReserve(ctx, userID, estimate, 0)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, res.Denial()
	}
	return res, nil
}

// settleText 按实际用量结算预占；上游未返回用量时保留预估值
func (s *Service) settleText(ctx context.Context, res *quota.Reservation, out *llm.TextResult) int64 {
	charged := out.Usage.Total
	if charged <= 0 {
		charged = res.Tokens
	}
	s.accounter.Settle(ctx, res, charged)
	if charged > res.Tokens {
		logger.Debug(ctx, "actual usage above estimate",
			"user_id", res.UserID,
			"estimated", res.Tokens,
			"actual", charged,
		)
		charged = res.Tokens
	}
	return charged
}

// remainingAfter 预占快照扣除退款后的剩余 token
func remainingAfter(res *quota.Reservation, charged int64) int64 {
	used := res.User.TokenUsageThisMonth - (res.Tokens - charged)
	return entity.Remaining(used, res.Limits.TokenLimit)
}
