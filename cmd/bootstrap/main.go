package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"storyforge-ai-api/internal/config"
	"storyforge-ai-api/internal/domain/entity"
	"storyforge-ai-api/internal/wire"
	"storyforge-ai-api/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	deps, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 同步表结构
	if err := deps.PgClient.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 创建管理员
	adminEmail := cfg.Bootstrap.AdminEmail
	admin, err := deps.UserRepo.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("failed to check admin existence: %v", err)
	}

	if admin == nil {
		fmt.Printf("Creating admin user: %s...\n", adminEmail)
		admin = entity.NewUser(uuid.NewString(), adminEmail, cfg.Bootstrap.AdminName, time.Now())
		admin.SubscriptionStatus = string(entity.TierAdmin)
		admin.SubscriptionPlan = string(entity.TierAdmin)
		if err := deps.UserRepo.Create(ctx, admin); err != nil {
			log.Fatalf("failed to create admin user: %v", err)
		}
		fmt.Printf("Admin user created with ID: %s\n", admin.ID)
	} else {
		fmt.Printf("Admin user %s already exists with ID: %s\n", adminEmail, admin.ID)
	}

	// 5. 签发短期访问令牌，便于本地调试
	token, err := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer).
		IssueAccessToken(admin.ID, admin.Email, cfg.Security.JWT.Expiration)
	if err != nil {
		log.Fatalf("failed to issue admin token: %v", err)
	}
	fmt.Printf("Admin access token (expires in %s):\n%s\n", cfg.Security.JWT.Expiration, token)

	fmt.Println("Bootstrap completed successfully.")
}
