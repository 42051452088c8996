// Package ratelimit 滑动窗口限流
//
// 提供内存和 Redis 两种实现：单实例部署使用内存限流器即可，
// 多实例部署时通过 Redis 共享计数窗口。两者行为一致：
// 窗口内请求数达到上限后拒绝，并给出建议的重试等待时间。
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config 限流配置
type Config struct {
	Max    int           // 窗口内最大请求数
	Window time.Duration // 滑动窗口长度
}

// Limiter 限流器接口
//
// Allow 判定 key（通常为客户端 IP）的本次请求是否放行。
// 拒绝时 retryAfter 为窗口内最早一次请求过期所需的等待时间。
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

// MemoryLimiter 进程内滑动窗口限流器
type MemoryLimiter struct {
	cfg Config

	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewMemoryLimiter 创建内存限流器
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg,
		entries: make(map[string][]time.Time),
	}
}

var _ Limiter = (*MemoryLimiter)(nil)

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()
	cutoff := now.Add(-l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	// 剔除窗口外的旧记录
	kept := l.entries[key][:0]
	for _, ts := range l.entries[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.cfg.Max {
		l.entries[key] = kept
		retryAfter := kept[0].Add(l.cfg.Window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}

	l.entries[key] = append(kept, now)
	return true, 0, nil
}

// Sweep 清理所有已完全过期的 key，供后台定期调用防止 map 无限增长
func (l *MemoryLimiter) Sweep() {
	cutoff := time.Now().Add(-l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, times := range l.entries {
		expired := true
		for _, ts := range times {
			if ts.After(cutoff) {
				expired = false
				break
			}
		}
		if expired {
			delete(l.entries, key)
		}
	}
}

// StartSweeper 启动后台清理协程，按 interval 周期调用 Sweep，返回停止函数
func (l *MemoryLimiter) StartSweeper(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// NoopLimiter 永远放行，测试环境使用
type NoopLimiter struct{}

var _ Limiter = (*NoopLimiter)(nil)

func (NoopLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, nil
}
