package story

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/service"
	"storyforge-ai-api/internal/workflow/prompt"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/metrics"
)

const operationStoryboard = "storyboard"

// StoryboardInput 分镜帧生成参数
type StoryboardInput struct {
	UserID      string
	ProjectID   string
	Description string
}

// StoryboardFrame 生成的分镜帧
type StoryboardFrame struct {
	ImageBase64     string `json:"image_base64"`
	MIMEType        string `json:"mime_type"`
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	ImagesRemaining int64  `json:"images_remaining"`
}

// GenerateStoryboard 检查并预占 1 张图片额度后生成分镜帧
func (s *Service) GenerateStoryboard(ctx context.Context, in StoryboardInput) (*StoryboardFrame, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, fmt.Errorf("%w: scene description is required", ErrInvalidProject)
	}
	project, err := s.ownedProject(ctx, in.UserID, in.ProjectID)
	if err != nil {
		return nil, err
	}

	system, user, err := s.prompts.Render(ctx, prompt.PromptStoryboardV1, projectVars(project, desc))
	if err != nil {
		return nil, err
	}
	imagePrompt := system + "\n\n" + user

	iq, err := s.accounter.CheckImageQuota(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !iq.HasQuota {
		return nil, &quota.ExceededError{
			UserID:    in.UserID,
			Tier:      string(iq.Tier),
			Resource:  quota.ResourceImages,
			Used:      iq.Used,
			Requested: 1,
			Limit:     iq.Limit,
		}
	}

	res, err := s.accounter.CheckAndReserve(ctx, in.UserID, 0, 1)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, res.Denial()
	}

	ctx = service.WithOperation(ctx, operationStoryboard)
	start := s.now()
	img, err := s.images.GenerateImage(ctx, imagePrompt)
	if err != nil {
		s.accounter.Release(ctx, res)
		metrics.GenerationTotal.WithLabelValues(operationStoryboard, "error").Inc()
		logger.Error(ctx, "storyboard generation failed", err, "user_id", in.UserID, "project_id", project.ID)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	s.recorder.RecordUsage(ctx, service.UsageInput{
		UserID:        in.UserID,
		ProjectID:     project.ID,
		Type:          entity.UsageTypeImage,
		Provider:      "imagen",
		Model:         img.Model,
		OperationName: operationStoryboard,
		Images:        1,
		DurationMs:    s.now().Sub(start).Milliseconds(),
	})
	metrics.GenerationTotal.WithLabelValues(operationStoryboard, "success").Inc()

	return &StoryboardFrame{
		ImageBase64:     base64.StdEncoding.EncodeToString(img.Data),
		MIMEType:        img.MIMEType,
		Model:           img.Model,
		Prompt:          user,
		ImagesRemaining: entity.Remaining(res.User.ImageUsageThisMonth, res.Limits.ImageLimit),
	}, nil
}
