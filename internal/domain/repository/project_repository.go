// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"storyforge-ai-api/internal/domain/entity"
)

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error

	// CreateWithinLimit 在用户项目数小于 maxProjects 时创建，maxProjects 为负表示不限
	CreateWithinLimit(ctx context.Context, project *entity.Project, maxProjects int64) (bool, error)

	// GetByID 根据 ID 获取项目
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// CountByUser 统计用户项目数
	CountByUser(ctx context.Context, userID string) (int64, error)

	// ListByUser 获取用户项目列表
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.Project], error)

	// UpdateContent 回写生成的 logline/treatment
	UpdateContent(ctx context.Context, id string, fields map[string]any) error
}
