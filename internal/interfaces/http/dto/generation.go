package dto

// GenerateRequest 文本生成请求
type GenerateRequest struct {
	Instructions string   `json:"instructions" binding:"max=4000"`
	Temperature  *float32 `json:"temperature,omitempty" binding:"omitempty,gte=0,lte=2"`
	MaxTokens    int      `json:"max_tokens,omitempty" binding:"omitempty,gte=1,lte=8192"`
}

// StoryboardRequest 分镜帧生成请求
type StoryboardRequest struct {
	Description string `json:"description" binding:"required,max=2000"`
}

// ChatRequest 创作助手对话请求
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	ProjectID string `json:"project_id,omitempty"`
}
