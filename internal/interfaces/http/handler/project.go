// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"storyforge-ai-api/internal/application/story"
	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/internal/interfaces/http/dto"
	"storyforge-ai-api/internal/interfaces/http/middleware"
	"storyforge-ai-api/pkg/logger"
)

// ProjectService 项目用例
type ProjectService interface {
	CreateProject(ctx context.Context, in story.CreateProjectInput) (*entity.Project, error)
	ListProjects(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error)
	GetProject(ctx context.Context, userID, projectID string) (*entity.Project, error)
}

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projects ProjectService
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projects ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
	}
}

// ListProjects 获取项目列表
// @Summary 获取项目列表
// @Description 获取当前用户的项目列表
// @Tags Projects
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.ProjectListResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)

	result, err := h.projects.ListProjects(ctx, middleware.GetUserIDFromGin(c), pageReq.Pagination())
	if err != nil {
		writeError(c, err, "failed to list projects")
		return
	}

	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToProjectListResponse(result.Items), meta)
}

// CreateProject 创建项目
// @Summary 创建项目
// @Description 在当前计划的项目数上限内创建项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} dto.Response[dto.ProjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, err := h.projects.CreateProject(ctx, story.CreateProjectInput{
		UserID:      middleware.GetUserIDFromGin(c),
		Title:       req.Title,
		Kind:        entity.ProjectKind(req.Kind),
		Genre:       req.Genre,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err, "failed to create project")
		return
	}

	logger.Info(logger.WithContext(ctx, logger.ProjectIDKey, project.ID), "project created", "kind", project.Kind)
	dto.Created(c, dto.ToProjectResponse(project))
}

// GetProject 获取项目详情
// @Summary 获取项目详情
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projects.GetProject(c.Request.Context(), middleware.GetUserIDFromGin(c), dto.BindProjectID(c))
	if err != nil {
		writeError(c, err, "failed to get project")
		return
	}
	dto.Success(c, dto.ToProjectResponse(project))
}
