// Package redis 提供 Redis 限流器实现
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// fixedWindowScript 达到上限时不再计数；首次计数时设置窗口过期时间
var fixedWindowScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return 0
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// RateLimiter 多实例共享的固定窗口限流器
type RateLimiter struct {
	client *Client
	limit  int
	window time.Duration
	prefix string
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client, limit int, window time.Duration, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow 检查是否允许请求（固定窗口算法）
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", l.limit),
		attribute.Int64("ratelimit.window_ms", l.window.Milliseconds()),
	)
	defer span.End()

	allowed, err := fixedWindowScript.Run(ctx, l.client.rdb,
		[]string{l.prefix + key}, l.limit, l.window.Milliseconds()).Int()
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	span.SetAttributes(attribute.Bool("ratelimit.allowed", allowed == 1))
	return allowed == 1, nil
}
