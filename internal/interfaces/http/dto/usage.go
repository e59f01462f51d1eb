package dto

import (
	"time"

	"storyforge-ai-api/internal/domain/entity"
)

// UsageRecordResponse 用量流水响应
type UsageRecordResponse struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id,omitempty"`
	Type             string    `json:"type"`
	Provider         string    `json:"provider,omitempty"`
	Model            string    `json:"model"`
	OperationName    string    `json:"operation_name,omitempty"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	Tokens           int64     `json:"tokens"`
	Images           int64     `json:"images"`
	Cost             float64   `json:"cost"`
	CreatedAt        time.Time `json:"created_at"`
}

// UsageHistoryResponse 用量流水列表
type UsageHistoryResponse struct {
	Records []*UsageRecordResponse `json:"records"`
}

// ToUsageHistoryResponse 转换用量流水列表
func ToUsageHistoryResponse(records []*entity.TokenUsageRecord) *UsageHistoryResponse {
	out := make([]*UsageRecordResponse, 0, len(records))
	for _, r := range records {
		item := &UsageRecordResponse{
			ID:               r.ID,
			Type:             string(r.Type),
			Provider:         r.Provider,
			Model:            r.Model,
			OperationName:    r.OperationName,
			PromptTokens:     r.PromptTokens,
			CompletionTokens: r.CompletionTokens,
			Tokens:           r.Tokens,
			Images:           r.Images,
			Cost:             r.Cost,
			CreatedAt:        r.CreatedAt,
		}
		if r.ProjectID != nil {
			item.ProjectID = *r.ProjectID
		}
		out = append(out, item)
	}
	return &UsageHistoryResponse{Records: out}
}
