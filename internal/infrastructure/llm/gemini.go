package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"storyforge-ai-api/internal/config"
)

// contentModels genai.Models 的文本生成子集
type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider 基于 genai 的 Gemini 文本提供商
type GeminiProvider struct {
	name        string
	model       string
	maxTokens   int
	temperature float32
	models      contentModels
	retry       RetryPolicy
}

// NewGeminiClient 创建 Gemini API 客户端
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiProvider 创建 Gemini 提供商
func NewGeminiProvider(name string, cfg config.ProviderConfig, client *genai.Client, retry RetryPolicy) *GeminiProvider {
	return newGeminiProvider(name, cfg, client.Models, retry)
}

func newGeminiProvider(name string, cfg config.ProviderConfig, models contentModels, retry RetryPolicy) *GeminiProvider {
	return &GeminiProvider{
		name:        name,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		models:      models,
		retry:       retry,
	}
}

func (p *GeminiProvider) Name() string  { return p.name }
func (p *GeminiProvider) Model() string { return p.model }

// Generate 调用 Gemini 生成文本，429 时退避重试
func (p *GeminiProvider) Generate(ctx context.Context, req TextRequest) (*TextResult, error) {
	gc := &genai.GenerateContentConfig{}
	if s := strings.TrimSpace(req.System); s != "" {
		gc.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: s}},
			Role:  genai.RoleUser,
		}
	}
	switch {
	case req.Temperature != nil:
		gc.Temperature = genai.Ptr(*req.Temperature)
	case p.temperature > 0:
		gc.Temperature = genai.Ptr(p.temperature)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := retryOnRateLimit(ctx, p.retry, p.name, func() (*genai.GenerateContentResponse, error) {
		return p.models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), gc)
	})
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", p.name, err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	res := &TextResult{Text: text, Model: p.model, Provider: p.name}
	if u := resp.UsageMetadata; u != nil {
		res.Usage = normalizeUsage(int64(u.PromptTokenCount), int64(u.CandidatesTokenCount), int64(u.TotalTokenCount))
	}
	return res, nil
}

// responseText 拼接首个候选的非思考文本片段
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}
