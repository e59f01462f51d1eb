package story

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/pkg/logger"
)

const maxTitleRunes = 255

// CreateProjectInput 创建项目参数
type CreateProjectInput struct {
	UserID      string
	Title       string
	Kind        entity.ProjectKind
	Genre       string
	Description string
}

// CreateProject 在项目数上限内创建项目
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*entity.Project, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleRunes {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidProject, maxTitleRunes)
	}
	if in.Kind == "" {
		in.Kind = entity.ProjectKindShortFilm
	}
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidProject, in.Kind)
	}

	_, limits, err := s.accounter.Limits(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	p := entity.NewProject(uuid.NewString(), in.UserID, title, in.Kind)
	p.Genre = strings.TrimSpace(in.Genre)
	p.Description = strings.TrimSpace(in.Description)

	ok, err := s.projects.CreateWithinLimit(ctx, p, limits.MaxProjects)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if !ok {
		logger.Info(ctx, "project limit reached",
			"user_id", in.UserID,
			"tier", limits.Tier,
			"max_projects", limits.MaxProjects,
		)
		return nil, ErrProjectLimitReached
	}

	logger.Info(ctx, "project created", "user_id", in.UserID, "project_id", p.ID, "kind", p.Kind)
	return p, nil
}

// ListProjects 分页列出用户项目
func (s *Service) ListProjects(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return s.projects.ListByUser(ctx, userID, pagination)
}

// GetProject 获取用户自己的项目
func (s *Service) GetProject(ctx context.Context, userID, projectID string) (*entity.Project, error) {
	return s.ownedProject(ctx, userID, projectID)
}
