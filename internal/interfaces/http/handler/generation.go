package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"storyforge-ai-api/internal/application/story"
	"storyforge-ai-api/internal/interfaces/http/dto"
	"storyforge-ai-api/internal/interfaces/http/middleware"
	"storyforge-ai-api/pkg/logger"
)

// GenerationService 计量的 AI 生成用例
type GenerationService interface {
	Generate(ctx context.Context, in story.GenerateInput) (*story.GenerateOutput, error)
	GenerateStoryboard(ctx context.Context, in story.StoryboardInput) (*story.StoryboardFrame, error)
	Chat(ctx context.Context, in story.ChatInput) (*story.ChatOutput, error)
}

// GenerationHandler 文本、分镜与对话生成处理器
type GenerationHandler struct {
	svc GenerationService
}

// NewGenerationHandler 创建生成处理器
func NewGenerationHandler(svc GenerationService) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// Generate 生成项目文本
// @Summary 生成项目文本
// @Description 预占 token 额度后调用模型生成 logline/treatment/characters/scenes/dialogue
// @Tags Generation
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param kind path string true "生成类型"
// @Param body body dto.GenerateRequest false "生成参数"
// @Success 200 {object} dto.Response[story.GenerateOutput]
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/generate/{kind} [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	kind, err := story.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, err, "invalid generation kind")
		return
	}

	var req dto.GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	projectID := dto.BindProjectID(c)
	ctx := logger.WithContext(c.Request.Context(), logger.ProjectIDKey, projectID)
	out, err := h.svc.Generate(ctx, story.GenerateInput{
		UserID:       middleware.GetUserIDFromGin(c),
		ProjectID:    projectID,
		Kind:         kind,
		Instructions: req.Instructions,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		writeError(c, err, "generation failed")
		return
	}
	dto.Success(c, out)
}

// Storyboard 生成分镜帧
// @Summary 生成分镜帧
// @Description 检查并预占 1 张图片额度后生成分镜图片
// @Tags Generation
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.StoryboardRequest true "画面描述"
// @Success 200 {object} dto.Response[story.StoryboardFrame]
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/storyboard [post]
func (h *GenerationHandler) Storyboard(c *gin.Context) {
	var req dto.StoryboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	projectID := dto.BindProjectID(c)
	ctx := logger.WithContext(c.Request.Context(), logger.ProjectIDKey, projectID)
	frame, err := h.svc.GenerateStoryboard(ctx, story.StoryboardInput{
		UserID:      middleware.GetUserIDFromGin(c),
		ProjectID:   projectID,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err, "storyboard generation failed")
		return
	}
	dto.Success(c, frame)
}

// Chat 创作助手对话
// @Summary 创作助手对话
// @Description 每用户每分钟 20 次，消耗 token 额度
// @Tags Generation
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "消息"
// @Success 200 {object} dto.Response[story.ChatOutput]
// @Failure 403 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *GenerationHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.ProjectID != "" {
		ctx = logger.WithContext(ctx, logger.ProjectIDKey, req.ProjectID)
	}
	out, err := h.svc.Chat(ctx, story.ChatInput{
		UserID:    middleware.GetUserIDFromGin(c),
		ProjectID: req.ProjectID,
		Message:   req.Message,
	})
	if err != nil {
		writeError(c, err, "chat failed")
		return
	}
	dto.Success(c, out)
}
