package story

import (
	"context"
	"fmt"
	"strings"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/service"
	"storyforge-ai-api/internal/infrastructure/llm"
	"storyforge-ai-api/internal/workflow/prompt"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/metrics"
)

const (
	operationChat     = "chat"
	chatMaxTokens     = 1024
	maxChatInputRunes = 4000
)

// ChatInput 创作助手对话参数
type ChatInput struct {
	UserID    string
	ProjectID string
	Message   string
}

// ChatOutput 对话回复
type ChatOutput struct {
	Reply           string    `json:"reply"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	Usage           llm.Usage `json:"usage"`
	TokensRemaining int64     `json:"tokens_remaining"`
}

// Chat 单轮对话，与文本生成共享 token 额度
func (s *Service) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	msg = truncateByRunes(msg, maxChatInputRunes)

	if in.ProjectID != "" {
		if _, err := s.ownedProject(ctx, in.UserID, in.ProjectID); err != nil {
			return nil, err
		}
	}

	system, user, err := s.prompts.Render(ctx, prompt.PromptChatV1, map[string]any{"message": msg})
	if err != nil {
		return nil, err
	}

	estimate := quota.EstimateTokens(system+"\n"+user, chatMaxTokens)
	res, err := s.reserveText(ctx, in.UserID, estimate)
	if err != nil {
		return nil, err
	}

	ctx = service.WithOperation(ctx, operationChat)
	start := s.now()
	out, err := s.text.Generate(ctx, llm.TextRequest{System: system, Prompt: user, MaxTokens: chatMaxTokens})
	if err != nil {
		s.accounter.Release(ctx, res)
		metrics.GenerationTotal.WithLabelValues(operationChat, "error").Inc()
		logger.Error(ctx, "chat generation failed", err, "user_id", in.UserID)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	charged := s.settleText(ctx, res, out)
	s.recorder.RecordUsage(ctx, service.UsageInput{
		UserID:           in.UserID,
		ProjectID:        in.ProjectID,
		Type:             entity.UsageTypeChat,
		Provider:         out.Provider,
		Model:            out.Model,
		OperationName:    operationChat,
		PromptTokens:     out.Usage.Prompt,
		CompletionTokens: out.Usage.Completion,
		TotalTokens:      out.Usage.Total,
		DurationMs:       s.now().Sub(start).Milliseconds(),
	})
	metrics.GenerationTotal.WithLabelValues(operationChat, "success").Inc()

	return &ChatOutput{
		Reply:           out.Text,
		Provider:        out.Provider,
		Model:           out.Model,
		Usage:           out.Usage,
		TokensRemaining: remainingAfter(res, charged),
	}, nil
}
