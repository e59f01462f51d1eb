// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
)

// ProjectRepository 项目仓储实现
type ProjectRepository struct {
	client *Client
	tx     *TxManager
}

var _ repository.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository 创建项目仓储
func NewProjectRepository(client *Client, tx *TxManager) *ProjectRepository {
	return &ProjectRepository{client: client, tx: tx}
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// CreateWithinLimit 锁定用户行后计数并插入，同一用户的并发创建串行执行
func (r *ProjectRepository) CreateWithinLimit(ctx context.Context, project *entity.Project, maxProjects int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.CreateWithinLimit")
	defer span.End()

	if maxProjects < 0 {
		return true, r.Create(ctx, project)
	}

	created := false
	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		db := getDB(ctx, r.client.db)

		var owner entity.User
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&owner, "id = ?", project.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", project.UserID, repository.ErrNotFound)
			}
			return err
		}

		var count int64
		if err := db.Model(&entity.Project{}).Where("user_id = ?", project.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count >= maxProjects {
			return nil
		}
		if err := db.Create(project).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

// GetByID 根据 ID 获取项目
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var project entity.Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// CountByUser 统计用户项目数
func (r *ProjectRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.CountByUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Project{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// ListByUser 获取用户项目列表
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.ListByUser")
	defer span.End()

	total, err := r.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	db := getDB(ctx, r.client.db)
	var projects []*entity.Project
	if err := db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&projects).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return repository.NewPagedResult(projects, total, pagination), nil
}

// UpdateContent 回写生成内容
func (r *ProjectRepository) UpdateContent(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateContent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Project{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}
