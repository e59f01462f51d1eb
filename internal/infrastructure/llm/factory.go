package llm

import (
	"context"
	"fmt"
	"strings"

	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/pkg/logger"
)

const (
	KindOpenAI = "openai"
	KindGemini = "gemini"
)

// NewProviders 按降级链顺序构建提供商，未配置 API Key 的提供商跳过
func NewProviders(ctx context.Context, cfg *config.LLMConfig) ([]Provider, error) {
	chain := cfg.FallbackChain
	if len(chain) == 0 && cfg.DefaultProvider != "" {
		chain = []string{cfg.DefaultProvider}
	}
	retry := RetryPolicyFromConfig(cfg.Retry)

	providers := make([]Provider, 0, len(chain))
	seen := make(map[string]struct{}, len(chain))
	for _, name := range chain {
		name = strings.TrimSpace(name)
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}

		pc, ok := cfg.Providers[name]
		if !ok {
			return nil, fmt.Errorf("provider %s not found in LLM config", name)
		}
		if pc.APIKey == "" {
			logger.Warn(ctx, "llm provider skipped: api key not set", "provider", name)
			continue
		}

		switch kindOf(name, pc) {
		case KindGemini:
			client, err := NewGeminiClient(ctx, pc.APIKey)
			if err != nil {
				return nil, err
			}
			providers = append(providers, NewGeminiProvider(name, pc, client, retry))
		case KindOpenAI:
			p, err := NewOpenAIProvider(ctx, name, pc)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		default:
			return nil, fmt.Errorf("provider %s has unsupported kind %q", name, pc.Kind)
		}
	}
	return providers, nil
}

// NewTextGateway 创建带熔断降级的文本网关
func NewTextGateway(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	providers, err := NewProviders(ctx, &cfg.LLM)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		logger.Warn(ctx, "no llm provider available, generation endpoints will fail")
	}
	return NewGateway(providers, cfg.LLM.Breaker), nil
}

// NewImageGenerator 创建分镜图片生成器，未配置时返回占位实现
func NewImageGenerator(ctx context.Context, cfg *config.Config) (ImageGenerator, error) {
	pc, ok := cfg.LLM.Providers[cfg.LLM.Image.Provider]
	if !ok || pc.APIKey == "" {
		logger.Warn(ctx, "image provider not configured, storyboard disabled", "provider", cfg.LLM.Image.Provider)
		return unavailableImages{}, nil
	}
	if kindOf(cfg.LLM.Image.Provider, pc) != KindGemini {
		return nil, fmt.Errorf("image provider %s must be a gemini provider", cfg.LLM.Image.Provider)
	}
	client, err := NewGeminiClient(ctx, pc.APIKey)
	if err != nil {
		return nil, err
	}
	return NewImagenGenerator(client, cfg.LLM.Image, RetryPolicyFromConfig(cfg.LLM.Retry)), nil
}

func kindOf(name string, pc config.ProviderConfig) string {
	kind := strings.ToLower(strings.TrimSpace(pc.Kind))
	if kind != "" {
		return kind
	}
	if name == KindGemini {
		return KindGemini
	}
	return KindOpenAI
}
