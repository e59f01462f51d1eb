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

// 注入提示词的上下文长度上限
const (
	maxContextRunes      = 8000
	maxInstructionsRunes = 2000
)

// Kind 文本生成类型
type Kind string

const (
	KindLogline    Kind = "logline"
	KindTreatment  Kind = "treatment"
	KindCharacters Kind = "characters"
	KindScenes     Kind = "scenes"
	KindDialogue   Kind = "dialogue"
)

type kindSpec struct {
	prompt    prompt.PromptID
	maxTokens int
	// field 非空时生成结果回写到项目
	field string
}

var kindSpecs = map[Kind]kindSpec{
	KindLogline:    {prompt: prompt.PromptLoglineV1, maxTokens: 256, field: "logline"},
	KindTreatment:  {prompt: prompt.PromptTreatmentV1, maxTokens: 4096, field: "treatment"},
	KindCharacters: {prompt: prompt.PromptCharactersV1, maxTokens: 2048},
	KindScenes:     {prompt: prompt.PromptScenesV1, maxTokens: 4096},
	KindDialogue:   {prompt: prompt.PromptDialogueV1, maxTokens: 4096},
}

// ParseKind 解析生成类型
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindSpecs[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// GenerateInput 文本生成参数
type GenerateInput struct {
	UserID       string
	ProjectID    string
	Kind         Kind
	Instructions string
	Temperature  *float32
	// MaxTokens 不超过该类型的默认上限
	MaxTokens int
}

// GenerateOutput 文本生成结果
type GenerateOutput struct {
	Kind            Kind      `json:"kind"`
	Text            string    `json:"text"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	Usage           llm.Usage `json:"usage"`
	TokensCharged   int64     `json:"tokens_charged"`
	TokensRemaining int64     `json:"tokens_remaining"`
}

// Generate 预占额度 -> 调用提供商 -> 结算并记录流水
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	spec, ok := kindSpecs[in.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}
	project, err := s.ownedProject(ctx, in.UserID, in.ProjectID)
	if err != nil {
		return nil, err
	}

	system, user, err := s.prompts.Render(ctx, spec.prompt, projectVars(project, in.Instructions))
	if err != nil {
		return nil, err
	}
	maxTokens := spec.maxTokens
	if in.MaxTokens > 0 && in.MaxTokens < maxTokens {
		maxTokens = in.MaxTokens
	}

	estimate := quota.EstimateTokens(system+"\n"+user, maxTokens)
	res, err := s.reserveText(ctx, in.UserID, estimate)
	if err != nil {
		return nil, err
	}

	ctx = service.WithOperation(ctx, string(in.Kind))
	start := s.now()
	out, err := s.text.Generate(ctx, llm.TextRequest{
		System:      system,
		Prompt:      user,
		Temperature: in.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		s.accounter.Release(ctx, res)
		metrics.GenerationTotal.WithLabelValues(string(in.Kind), "error").Inc()
		logger.Error(ctx, "text generation failed", err, "user_id", in.UserID, "project_id", project.ID, "kind", in.Kind)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	charged := s.settleText(ctx, res, out)
	s.recorder.RecordUsage(ctx, service.UsageInput{
		UserID:           in.UserID,
		ProjectID:        project.ID,
		Type:             entity.UsageTypeText,
		Provider:         out.Provider,
		Model:            out.Model,
		OperationName:    string(in.Kind),
		PromptTokens:     out.Usage.Prompt,
		CompletionTokens: out.Usage.Completion,
		TotalTokens:      out.Usage.Total,
		DurationMs:       s.now().Sub(start).Milliseconds(),
	})

	if spec.field != "" {
		saveCtx, cancel := quota.Detach(ctx)
		err := s.projects.UpdateContent(saveCtx, project.ID, map[string]any{spec.field: out.Text})
		cancel()
		if err != nil {
			logger.Warn(ctx, "failed to save generated content to project",
				"project_id", project.ID, "field", spec.field, "error", err.Error())
		}
	}

	metrics.GenerationTotal.WithLabelValues(string(in.Kind), "success").Inc()
	return &GenerateOutput{
		Kind:            in.Kind,
		Text:            out.Text,
		Provider:        out.Provider,
		Model:           out.Model,
		Usage:           out.Usage,
		TokensCharged:   charged,
		TokensRemaining: remainingAfter(res, charged),
	}, nil
}

func projectVars(p *entity.Project, instructions string) map[string]any {
	return map[string]any{
		"title":        p.Title,
		"kind":         string(p.Kind),
		"genre":        orNone(p.Genre),
		"description":  orNone(truncateByRunes(p.Description, maxContextRunes)),
		"logline":      orNone(p.Logline),
		"treatment":    orNone(truncateByRunes(p.Treatment, maxContextRunes)),
		"instructions": orNone(truncateByRunes(strings.TrimSpace(instructions), maxInstructionsRunes)),
	}
}
