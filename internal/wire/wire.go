//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"storyforge-ai-api/internal/application/quota"
	"storyforge-ai-api/internal/application/story"
	"storyforge-ai-api/internal/application/subscription"
	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/internal/domain/repository"
	"storyforge-ai-api/internal/domain/service"
	"storyforge-ai-api/internal/infrastructure/llm"
	"storyforge-ai-api/internal/infrastructure/payment/razorpay"
	"storyforge-ai-api/internal/infrastructure/persistence/postgres"
	"storyforge-ai-api/internal/infrastructure/persistence/redis"
	"storyforge-ai-api/internal/interfaces/http/handler"
	"storyforge-ai-api/internal/interfaces/http/router"
	"storyforge-ai-api/internal/workflow/prompt"
)

// BootstrapDeps 初始化任务依赖（仅 PostgreSQL）
type BootstrapDeps struct {
	PgClient *postgres.Client
	UserRepo *postgres.UserRepository
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MeteringSet,
		LLMSet,
		StorySet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeBootstrap 仅初始化 PostgreSQL 依赖（用于 bootstrap）
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*BootstrapDeps, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(BootstrapDeps), "*"),
	)
	return nil, nil, nil
}

// InitializeResetter 初始化月度重置任务
func InitializeResetter(ctx context.Context, cfg *config.Config) (*quota.Resetter, func(), error) {
	wire.Build(
		PostgresSet,
		ProvideResetter,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewProjectRepository,
	postgres.NewTokenUsageRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.ProjectRepository), new(*postgres.ProjectRepository)),
	wire.Bind(new(repository.TokenUsageRepository), new(*postgres.TokenUsageRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvidePaymentLedger,
	ProvideOrderStore,
	ProvideChatLimiter,
	wire.Bind(new(subscription.PaymentLedger), new(*redis.PaymentLedger)),
	wire.Bind(new(subscription.OrderStore), new(*redis.OrderStore)),
)

// MeteringSet 订阅等级、配额与计费
var MeteringSet = wire.NewSet(
	ProvideCatalog,
	subscription.NewResolver,
	ProvidePricing,
	ProvidePaymentVerifier,
	ProvideOrderClient,
	quota.NewAccounter,
	quota.NewUsageRecorder,
	quota.NewReporter,
	subscription.NewService,
	wire.Bind(new(quota.TierResolver), new(*subscription.Resolver)),
	wire.Bind(new(service.UsageRecorder), new(*quota.UsageRecorder)),
	wire.Bind(new(subscription.PaymentVerifier), new(*razorpay.Verifier)),
	wire.Bind(new(subscription.OrderCreator), new(*razorpay.OrderClient)),
)

// LLMSet 文本与图片生成
var LLMSet = wire.NewSet(
	llm.NewTextGateway,
	llm.NewImageGenerator,
	prompt.NewRegistry,
	wire.Bind(new(llm.TextGenerator), new(*llm.Gateway)),
)

// StorySet 项目与生成用例
var StorySet = wire.NewSet(
	story.NewService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewProjectHandler,
	handler.NewGenerationHandler,
	handler.NewUsageHandler,
	handler.NewSubscriptionHandler,
	wire.Bind(new(handler.ProjectService), new(*story.Service)),
	wire.Bind(new(handler.GenerationService), new(*story.Service)),
	wire.Bind(new(handler.UsageReporter), new(*quota.Reporter)),
	wire.Bind(new(handler.SubscriptionService), new(*subscription.Service)),
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)
