package service

import (
	"context"

	"storyforge-ai-api/internal/domain/entity"
)

// UsageInput 一次 AI 调用的计费数据，Cost 为 nil 时按模型单价计算
type UsageInput struct {
	UserID        string
	ProjectID     string
	Type          entity.UsageType
	Provider      string
	Model         string
	OperationName string

	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	Images           int64
	DurationMs       int64

	Cost *float64
}

// UsageRecorder 记录用量流水。
// 约定：实现为 best-effort，写入失败只记录日志，不影响已生成内容的返回。
type UsageRecorder interface {
	RecordUsage(ctx context.Context, in UsageInput)
}
