package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"storyforge-ai-api/internal/config"
)

// OpenAIProvider 基于 Eino OpenAI 适配器的文本提供商 (兼容 OpenAI 协议的上游均可)
type OpenAIProvider struct {
	name  string
	model string
	chat  model.BaseChatModel
}

// NewOpenAIProvider 创建 OpenAI 兼容提供商
func NewOpenAIProvider(ctx context.Context, name string, cfg config.ProviderConfig) (*OpenAIProvider, error) {
	chatCfg := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		chatCfg.MaxTokens = &maxTokens
	}
	if cfg.Temperature > 0 {
		chatCfg.Temperature = ptrFloat32(float32(cfg.Temperature))
	}

	chatModel, err := openai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}
	return newOpenAIProvider(name, cfg.Model, chatModel), nil
}

func newOpenAIProvider(name, modelName string, chat model.BaseChatModel) *OpenAIProvider {
	return &OpenAIProvider{name: name, model: modelName, chat: chat}
}

func (p *OpenAIProvider) Name() string  { return p.name }
func (p *OpenAIProvider) Model() string { return p.model }

// Generate 调用 ChatModel 生成文本
func (p *OpenAIProvider) Generate(ctx context.Context, req TextRequest) (*TextResult, error) {
	msgs := make([]*schema.Message, 0, 2)
	if s := strings.TrimSpace(req.System); s != "" {
		msgs = append(msgs, schema.SystemMessage(s))
	}
	msgs = append(msgs, schema.UserMessage(req.Prompt))

	opts := make([]model.Option, 0, 2)
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	out, err := p.chat.Generate(ctx, msgs, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", p.name, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return nil, ErrEmptyResponse
	}

	res := &TextResult{
		Text:     strings.TrimSpace(out.Content),
		Model:    p.model,
		Provider: p.name,
	}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		u := out.ResponseMeta.Usage
		res.Usage = normalizeUsage(int64(u.PromptTokens), int64(u.CompletionTokens), int64(u.TotalTokens))
	}
	return res, nil
}

func ptrFloat32(f float32) *float32 {
	return &f
}
