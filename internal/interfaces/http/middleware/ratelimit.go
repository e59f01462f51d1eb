// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"

	"storyforge-ai-api/internal/application/ratelimit"
	"storyforge-ai-api/internal/interfaces/http/dto"
	"storyforge-ai-api/pkg/errors"
	"storyforge-ai-api/pkg/logger"
	"storyforge-ai-api/pkg/metrics"
)

// RateLimit 按用户限流，须挂在 Auth 之后。
// 计数存储故障时放行，limiter 为 nil 时不限流。
func RateLimit(limiter ratelimit.Limiter, route string) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		key := GetUserIDFromGin(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			metrics.RateLimitErrors.Inc()
			logger.Warn(c.Request.Context(), "rate limiter unavailable, request allowed",
				"route", route,
				"error", err.Error(),
			)
			c.Next()
			return
		}

		if !allowed {
			metrics.RateLimitRejections.WithLabelValues(route).Inc()
			dto.AbortWithAppError(c, errors.ErrRateLimited)
			return
		}

		c.Next()
	}
}
