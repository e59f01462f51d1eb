// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"storyforge-ai-api/internal/domain/entity"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Kind        string `json:"kind" binding:"omitempty,oneof=short_film screenplay story"`
	Genre       string `json:"genre" binding:"max=100"`
	Description string `json:"description" binding:"max=5000"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	Genre       string    `json:"genre,omitempty"`
	Description string    `json:"description,omitempty"`
	Logline     string    `json:"logline,omitempty"`
	Treatment   string    `json:"treatment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
}

// ToProjectResponse 转换为项目响应
func ToProjectResponse(p *entity.Project) *ProjectResponse {
	if p == nil {
		return nil
	}
	return &ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Kind:        string(p.Kind),
		Genre:       p.Genre,
		Description: p.Description,
		Logline:     p.Logline,
		Treatment:   p.Treatment,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProjectListResponse 转换为项目列表响应
func ToProjectListResponse(projects []*entity.Project) *ProjectListResponse {
	out := make([]*ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToProjectResponse(p))
	}
	return &ProjectListResponse{Projects: out}
}
