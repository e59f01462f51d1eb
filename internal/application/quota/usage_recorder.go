package quota

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/internal/domain/service"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/metrics"
)

// UsageRecorder 追加用量流水，写入失败只记录日志
type UsageRecorder struct {
	usageRepo repository.TokenUsageRepository
	pricing   *Pricing
}

var _ service.UsageRecorder = (*UsageRecorder)(nil)

func NewUsageRecorder(usageRepo repository.TokenUsageRepository, pricing *Pricing) *UsageRecorder {
	return &UsageRecorder{
		usageRepo: usageRepo,
		pricing:   pricing,
	}
}

// RecordUsage 不重新检查额度；Cost 为空时按价格表计算。
// 上游已成功返回时流水必须落库，因此写入不随请求取消。
func (r *UsageRecorder) RecordUsage(ctx context.Context, in service.UsageInput) {
	if r == nil || r.usageRepo == nil {
		return
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return
	}
	if in.PromptTokens < 0 || in.CompletionTokens < 0 || in.TotalTokens < 0 {
		logger.Warn(ctx, "usage record skipped: negative token counts",
			"user_id", userID, "model", in.Model)
		return
	}

	total := in.TotalTokens
	if total == 0 {
		total = in.PromptTokens + in.CompletionTokens
	}
	cost := r.Cost(in)

	rec := &entity.TokenUsageRecord{
		ID:               uuid.NewString(),
		UserID:           userID,
		Type:             in.Type,
		Provider:         strings.TrimSpace(in.Provider),
		Model:            strings.TrimSpace(in.Model),
		PromptTokens:     in.PromptTokens,
		CompletionTokens: in.CompletionTokens,
		Tokens:           total,
		Images:           in.Images,
		Cost:             cost,
		OperationName:    strings.TrimSpace(in.OperationName),
		DurationMs:       in.DurationMs,
	}
	if pid := strings.TrimSpace(in.ProjectID); pid != "" {
		rec.ProjectID = &pid
	}
	if rec.Type == "" {
		rec.Type = entity.UsageTypeText
	}

	ctx, cancel := Detach(ctx)
	defer cancel()
	if err := r.usageRepo.Create(ctx, rec); err != nil {
		metrics.UsageRecordFailures.Inc()
		logger.Warn(ctx, "failed to record token usage",
			"user_id", userID,
			"model", rec.Model,
			"tokens", total,
			"error", err.Error(),
		)
	}
}

// Cost 返回调用方提供的费用，或按价格表计算
func (r *UsageRecorder) Cost(in service.UsageInput) float64 {
	if in.Cost != nil {
		return *in.Cost
	}
	if r.pricing == nil {
		return 0
	}
	return r.pricing.Cost(in.Model, in.PromptTokens, in.CompletionTokens)
}
