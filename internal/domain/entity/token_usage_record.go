// Package entity 定义领域实体
package entity

import "time"

// UsageType 用量类型
type UsageType string

const (
	UsageTypeText  UsageType = "text"
	UsageTypeChat  UsageType = "chat"
	UsageTypeImage UsageType = "image"
)

// TokenUsageRecord 单次 AI 调用的用量流水，只追加不修改
type TokenUsageRecord struct {
	ID               string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID           string    `json:"user_id" gorm:"type:varchar(36);index:idx_usage_user_created,priority:1;not null"`
	ProjectID        *string   `json:"project_id,omitempty" gorm:"type:varchar(36);index"`
	Type             UsageType `json:"type" gorm:"type:varchar(16);not null"`
	Provider         string    `json:"provider,omitempty" gorm:"type:varchar(32)"`
	Model            string    `json:"model" gorm:"type:varchar(64);not null"`
	PromptTokens     int64     `json:"prompt_tokens" gorm:"not null;default:0"`
	CompletionTokens int64     `json:"completion_tokens" gorm:"not null;default:0"`
	Tokens           int64     `json:"tokens" gorm:"not null;default:0"`
	Images           int64     `json:"images" gorm:"not null;default:0"`
	Cost             float64   `json:"cost" gorm:"not null;default:0"`
	OperationName    string    `json:"operation_name,omitempty" gorm:"type:varchar(64)"`
	DurationMs       int64     `json:"duration_ms" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_usage_user_created,priority:2"`
}

// TableName 指定表名
func (TokenUsageRecord) TableName() string {
	return "token_usage_records"
}

// UsageAggregate 某时间段内的用量汇总
type UsageAggregate struct {
	Requests         int64   `json:"requests"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	Tokens           int64   `json:"tokens"`
	Images           int64   `json:"images"`
	Cost             float64 `json:"cost"`
}
