// Package entity 定义领域实体
package entity

import (
	"time"
)

// ProjectKind 项目类型
type ProjectKind string

const (
	ProjectKindShortFilm  ProjectKind = "short_film"
	ProjectKindScreenplay ProjectKind = "screenplay"
	ProjectKindStory      ProjectKind = "story"
)

// Valid 检查项目类型是否受支持
func (k ProjectKind) Valid() bool {
	switch k {
	case ProjectKindShortFilm, ProjectKindScreenplay, ProjectKindStory:
		return true
	}
	return false
}

// Project 创作项目实体
type Project struct {
	ID          string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string      `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Title       string      `json:"title" gorm:"type:varchar(255);not null"`
	Kind        ProjectKind `json:"kind" gorm:"type:varchar(32);not null"`
	Genre       string      `json:"genre,omitempty" gorm:"type:varchar(100)"`
	Description string      `json:"description,omitempty" gorm:"type:text"`
	Logline     string      `json:"logline,omitempty" gorm:"type:text"`
	Treatment   string      `json:"treatment,omitempty" gorm:"type:text"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(id, userID, title string, kind ProjectKind) *Project {
	now := time.Now()
	return &Project{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnedBy 检查项目归属
func (p *Project) OwnedBy(userID string) bool {
	return p.UserID == userID
}
