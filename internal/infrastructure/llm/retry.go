package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"

	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/pkg/metrics"
)

const defaultMaxAttempts uint = 3

// RetryPolicy 上游 429 重试策略，其余错误直接返回
type RetryPolicy struct {
	MaxAttempts uint
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
}

// RetryPolicyFromConfig 从配置构建重试策略
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		Initial:     cfg.Initial,
		Max:         cfg.Max,
		Multiplier:  cfg.Multiplier,
	}
}

func (p RetryPolicy) maxTries() uint {
	if p.MaxAttempts == 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		b.InitialInterval = p.Initial
	}
	if p.Max > 0 {
		b.MaxInterval = p.Max
	}
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	return b
}

// IsRateLimited 判断上游是否返回 429
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests
	}
	return false
}

// retryOnRateLimit 仅在 429 时按指数退避重试
func retryOnRateLimit[T any](ctx context.Context, p RetryPolicy, provider string, op func() (T, error)) (T, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		if attempt > 1 {
			metrics.LLMRetries.WithLabelValues(provider).Inc()
		}
		v, err := op()
		if err != nil && !IsRateLimited(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(p.backOff()), backoff.WithMaxTries(p.maxTries()))
}
