// Package main 月度用量重置任务入口（usage-reset）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/internal/wire"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "usage-reset",
		Version:     cfg.App.Version,
		Environment: cfg.App.Env,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Insecure:    cfg.Observability.Tracing.Insecure,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	resetter, cleanup, err := wire.InitializeResetter(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize resetter", err)
	}
	defer cleanup()

	interval := cfg.Quota.Reset.Interval
	logger.Info(ctx, "usage-reset started", "interval", interval.String(), "batch_size", cfg.Quota.Reset.BatchSize)

	if err := resetter.Run(ctx, interval); err != nil {
		logger.Error(ctx, "usage-reset failed", err)
		cleanup()
		os.Exit(1)
	}
	logger.Info(ctx, "usage-reset exited")
}
