// Package ratelimit 提供按用户的固定窗口限流
package ratelimit

import (
	"context"
	"sync"
	"time"

	"storyforge-ai-api/pkg/metrics"
)

// Limiter 限流器。内存实现与 Redis 实现可互换，由调用方注入。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count     int
	resetTime time.Time
}

// MemoryLimiter 进程内固定窗口计数器，多实例部署下每个实例独立计数
type MemoryLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*window
}

// NewMemoryLimiter 创建限流器，默认每 60 秒 20 次
func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 20
	}
	if period <= 0 {
		period = time.Minute
	}
	return &MemoryLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		entries: make(map[string]*window),
	}
}

// Allow 窗口不存在或 now 已超过 resetTime 时开启新窗口并放行；
// 计数达到上限时拒绝，拒绝不计数。
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[key]
	if !ok || now.After(w.resetTime) {
		l.entries[key] = &window{count: 1, resetTime: now.Add(l.period)}
		return true, nil
	}
	if w.count >= l.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// Sweep 清理已过期窗口，返回清理数量
func (l *MemoryLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, w := range l.entries {
		if now.After(w.resetTime) {
			delete(l.entries, key)
			n++
		}
	}
	return n
}

// Run 按 interval 周期清理，直到 ctx 结束。每次清理后上报剩余 key 数。
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweepAndReport()
		}
	}
}

func (l *MemoryLimiter) sweepAndReport() {
	l.Sweep()
	metrics.RateLimitTrackedKeys.Set(float64(l.Len()))
}

// Len 当前跟踪的 key 数量
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
