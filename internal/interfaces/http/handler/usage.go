package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/internal/interfaces/http/dto"
	"storyforge-ai-api/internal/interfaces/http/middleware"
)

// UsageReporter 用量查询
type UsageReporter interface {
	Summary(ctx context.Context, userID string) (*quota.Summary, error)
	History(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.TokenUsageRecord], error)
}

// UsageHandler 用量处理器
type UsageHandler struct {
	reporter UsageReporter
}

// NewUsageHandler 创建用量处理器
func NewUsageHandler(reporter UsageReporter) *UsageHandler {
	return &UsageHandler{reporter: reporter}
}

// Summary 本周期额度与用量
// @Summary 用量汇总
// @Tags Usage
// @Produce json
// @Success 200 {object} dto.Response[quota.Summary]
// @Router /v1/usage [get]
func (h *UsageHandler) Summary(c *gin.Context) {
	summary, err := h.reporter.Summary(c.Request.Context(), middleware.GetUserIDFromGin(c))
	if err != nil {
		writeError(c, err, "failed to load usage summary")
		return
	}
	dto.Success(c, summary)
}

// History 用量流水
// @Summary 用量流水
// @Tags Usage
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.UsageHistoryResponse]
// @Router /v1/usage/history [get]
func (h *UsageHandler) History(c *gin.Context) {
	pageReq := dto.BindPage(c)
	result, err := h.reporter.History(c.Request.Context(), middleware.GetUserIDFromGin(c), pageReq.Pagination())
	if err != nil {
		writeError(c, err, "failed to load usage history")
		return
	}
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToUsageHistoryResponse(result.Items), meta)
}
