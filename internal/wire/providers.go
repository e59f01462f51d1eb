// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"time"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/application/ratelimit"
	"storyforge-ai-api/internal/application/subscription"
	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/internal/infrastructure/llm"
	"storyforge-ai-api/internal/infrastructure/payment/razorpay"
	"storyforge-ai-api/internal/infrastructure/persistence/postgres"
	"storyforge-ai-api/internal/infrastructure/persistence/redis"
	"storyforge-ai-api/internal/interfaces/http/handler"
	"storyforge-ai-api/pkg/logger"
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres, cfg.Observability.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideCatalog 提供订阅计划表
func ProvideCatalog(cfg *config.Config) (*subscription.Catalog, error) {
	return subscription.NewCatalog(cfg.Quota.Plans)
}

// ProvidePricing 提供模型单价表
func ProvidePricing(cfg *config.Config) *quota.Pricing {
	return quota.NewPricing(cfg.Quota.Pricing)
}

// ProvideResetter 提供月度重置任务
func ProvideResetter(cfg *config.Config, users *postgres.UserRepository) *quota.Resetter {
	return quota.NewResetter(users, cfg.Quota.Reset.BatchSize)
}

// ProvidePaymentVerifier 提供 Razorpay 签名校验器
func ProvidePaymentVerifier(cfg *config.Config) *razorpay.Verifier {
	return razorpay.NewVerifier(cfg.Payment.Razorpay.KeySecret)
}

// ProvidePaymentLedger 提供支付幂等记录，使用默认保留期
func ProvidePaymentLedger(client *redis.Client) *redis.PaymentLedger {
	return redis.NewPaymentLedger(client, 0)
}

// ProvideOrderClient 提供 Razorpay 下单客户端
func ProvideOrderClient(cfg *config.Config) *razorpay.OrderClient {
	return razorpay.NewOrderClient(&cfg.Payment.Razorpay)
}

// ProvideOrderStore 提供待支付订单存储
func ProvideOrderStore(cfg *config.Config, client *redis.Client) *redis.OrderStore {
	return redis.NewOrderStore(client, cfg.Payment.Razorpay.OrderTTL)
}

// ProvideChatLimiter 按配置选择对话限流后端，未启用时返回 nil。
// 内存后端随 ctx 结束停止过期清理。
func ProvideChatLimiter(ctx context.Context, cfg *config.Config, client *redis.Client) ratelimit.Limiter {
	rl := cfg.Security.RateLimit
	if !rl.Enabled {
		logger.Warn(ctx, "chat rate limiting disabled")
		return nil
	}

	if rl.Backend == "redis" {
		return redis.NewRateLimiter(client, rl.Limit, rl.Window, rl.KeyPrefix)
	}

	limiter := ratelimit.NewMemoryLimiter(rl.Limit, rl.Window)
	go limiter.Run(ctx, max(rl.Window, time.Minute))
	return limiter
}

// ProvideHealthHandler 提供健康检查处理器，PostgreSQL、Redis 与文本降级链均为必需
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rc *redis.Client, gw *llm.Gateway) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, map[string]handler.HealthChecker{
		"postgres": pg,
		"redis":    rc,
	}).WithLLMProviders(gw.Providers())
}
