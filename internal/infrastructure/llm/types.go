// Package llm 提供文本与图片生成的提供商适配、重试与熔断降级
package llm

import (
	"context"
	"errors"
)

var (
	ErrEmptyResponse      = errors.New("llm: empty response")
	ErrNoProvider         = errors.New("llm: no provider configured")
	ErrAllProvidersFailed = errors.New("llm: all providers failed")
)

// Usage 上游返回的 token 统计
type Usage struct {
	Prompt     int64
	Completion int64
	Total      int64
}

// TextRequest 文本生成请求
type TextRequest struct {
	System      string
	Prompt      string
	Temperature *float32
	MaxTokens   int
}

// TextResult 文本生成结果
type TextResult struct {
	Text     string
	Usage    Usage
	Model    string
	Provider string
}

// TextGenerator 文本生成端口
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (*TextResult, error)
}

// Provider 单个具名上游
type Provider interface {
	TextGenerator
	Name() string
	Model() string
}

// ImageResult 图片生成结果
type ImageResult struct {
	Data     []byte
	MIMEType string
	Model    string
}

// ImageGenerator 分镜图片生成端口
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*ImageResult, error)
}

func normalizeUsage(prompt, completion, total int64) Usage {
	if total <= 0 {
		total = prompt + completion
	}
	return Usage{Prompt: prompt, Completion: completion, Total: total}
}
