package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/pkg/metrics"
)

const storyboardAspectRatio = "16:9"

// imageModels genai.Models 的图片生成子集
type imageModels interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImagenGenerator 基于 Imagen 的分镜帧生成
type ImagenGenerator struct {
	model   string
	timeout time.Duration
	models  imageModels
	retry   RetryPolicy
}

// NewImagenGenerator 创建 Imagen 图片生成器
func NewImagenGenerator(client *genai.Client, cfg config.ImageConfig, retry RetryPolicy) *ImagenGenerator {
	return newImagenGenerator(client.Models, cfg, retry)
}

func newImagenGenerator(models imageModels, cfg config.ImageConfig, retry RetryPolicy) *ImagenGenerator {
	return &ImagenGenerator{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		models:  models,
		retry:   retry,
	}
}

// GenerateImage 生成单张分镜图
func (g *ImagenGenerator) GenerateImage(ctx context.Context, prompt string) (*ImageResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := retryOnRateLimit(ctx, g.retry, "imagen", func() (*genai.GenerateImagesResponse, error) {
		return g.models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
			NumberOfImages: 1,
			AspectRatio:    storyboardAspectRatio,
		})
	})
	if err != nil {
		metrics.ImagesGenerated.WithLabelValues(g.model, "error").Inc()
		return nil, fmt.Errorf("imagen generate: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0] == nil ||
		resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		metrics.ImagesGenerated.WithLabelValues(g.model, "empty").Inc()
		return nil, ErrEmptyResponse
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	metrics.ImagesGenerated.WithLabelValues(g.model, "success").Inc()
	return &ImageResult{Data: img.ImageBytes, MIMEType: mime, Model: g.model}, nil
}

// unavailableImages 未配置图片提供商时的占位实现
type unavailableImages struct{}

func (unavailableImages) GenerateImage(context.Context, string) (*ImageResult, error) {
	return nil, ErrNoProvider
}
