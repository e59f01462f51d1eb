// Package middleware 提供 HTTP 中间件
package middleware

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storyforge-ai-api/internal/interfaces/http/dto"
	"storyforge-ai-api/pkg/errors"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/utils"
)

const (
	// ContextUserID 认证后的用户 ID
	ContextUserID = "user_id"
	// ContextUserEmail 认证后的用户邮箱
	ContextUserEmail = "user_email"
)

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
	// SkipPaths 跳过认证的路径前缀
	SkipPaths []string
	// Enabled 是否启用认证
	Enabled bool
}

// Auth 校验 Bearer 会话令牌，失败返回 401，不会进入配额检查
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		if !cfg.Enabled || skipAuth(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			dto.AbortWithAppError(c, errors.ErrTokenMissing)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			dto.AbortWithAppError(c, errors.ErrTokenInvalid.WithDetail("invalid authorization format"))
			return
		}

		claims, err := jwtManager.ParseToken(strings.TrimSpace(token))
		if err != nil {
			if stderrors.Is(err, utils.ErrExpiredToken) {
				dto.AbortWithAppError(c, errors.ErrTokenExpired)
				return
			}
			dto.AbortWithAppError(c, errors.ErrTokenInvalid)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)

		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, claims.UserID)
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("user.id", claims.UserID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func skipAuth(skipPaths []string, path string) bool {
	for _, p := range skipPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// GetUserIDFromGin 从 Gin Context 中获取用户 ID
func GetUserIDFromGin(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/v1/subscription/plans",
}
