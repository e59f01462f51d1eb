package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/internal/domain/service"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/metrics"
)

// Gateway 按降级链依次调用提供商，每个提供商独立熔断
type Gateway struct {
	providers []*guardedProvider
}

type guardedProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker[*TextResult]
}

// NewGateway 创建降级网关，providers 顺序即降级顺序
func NewGateway(providers []Provider, cfg config.BreakerConfig) *Gateway {
	g := &Gateway{providers: make([]*guardedProvider, 0, len(providers))}
	for _, p := range providers {
		g.providers = append(g.providers, &guardedProvider{
			Provider: p,
			cb:       newBreaker(p.Name(), cfg),
		})
	}
	return g
}

func newBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker[*TextResult] {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	metrics.LLMBreakerState.WithLabelValues(name).Set(stateToFloat(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[*TextResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 调用方取消不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.LLMBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			logger.Warn(context.Background(), "llm circuit breaker state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// Providers 返回降级链中的提供商名称
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for _, p := range g.providers {
		names = append(names, p.Name())
	}
	return names
}

// Generate 依次尝试降级链，返回首个成功结果
func (g *Gateway) Generate(ctx context.Context, req TextRequest) (*TextResult, error) {
	if len(g.providers) == 0 {
		return nil, ErrNoProvider
	}

	var errs []error
	for _, p := range g.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		pctx := service.WithProvider(ctx, p.Name())
		start := time.Now()
		res, err := p.cb.Execute(func() (*TextResult, error) {
			return p.Generate(pctx, req)
		})
		elapsed := time.Since(start).Seconds()

		if err == nil {
			observeSuccess(res, elapsed)
			return res, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.LLMCallTotal.WithLabelValues(p.Name(), p.Model(), "rejected").Inc()
		} else {
			metrics.LLMCallTotal.WithLabelValues(p.Name(), p.Model(), "error").Inc()
			metrics.LLMCallDuration.WithLabelValues(p.Name(), p.Model()).Observe(elapsed)
		}
		logger.Warn(ctx, "llm provider failed, trying next",
			"provider", p.Name(),
			"operation", service.OperationFromContext(ctx),
			"error", err.Error(),
		)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

func observeSuccess(res *TextResult, elapsed float64) {
	metrics.LLMCallTotal.WithLabelValues(res.Provider, res.Model, "success").Inc()
	metrics.LLMCallDuration.WithLabelValues(res.Provider, res.Model).Observe(elapsed)
	metrics.LLMTokensUsed.WithLabelValues(res.Provider, res.Model, "prompt").Add(float64(res.Usage.Prompt))
	metrics.LLMTokensUsed.WithLabelValues(res.Provider, res.Model, "completion").Add(float64(res.Usage.Completion))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
