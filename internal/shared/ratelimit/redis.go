package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix Redis 限流键前缀
const keyPrefix = "ratelimit:"

// RedisLimiter 基于 Redis ZSET 的滑动窗口限流器，多实例部署时共享窗口
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

// NewRedisLimiter 创建 Redis 限流器
func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg}
}

var _ Limiter = (*RedisLimiter)(nil)

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()
	cutoff := now.Add(-l.cfg.Window)
	rkey := keyPrefix + key

	// 先清理窗口外成员再计数，保证计数只覆盖当前窗口
	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to query rate limit window: %w", err)
	}

	if countCmd.Val() >= int64(l.cfg.Max) {
		// 最早成员过期时刻即为重试时间
		oldest, err := l.client.ZRangeWithScores(ctx, rkey, 0, 0).Result()
		if err != nil {
			return false, 0, fmt.Errorf("failed to read rate limit window: %w", err)
		}
		retryAfter := l.cfg.Window
		if len(oldest) > 0 {
			oldestAt := time.Unix(0, int64(oldest[0].Score))
			retryAfter = oldestAt.Add(l.cfg.Window).Sub(now)
			if retryAfter < 0 {
				retryAfter = 0
			}
		}
		return false, retryAfter, nil
	}

	pipe = l.client.Pipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, rkey, l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to record rate limit hit: %w", err)
	}
	return true, 0, nil
}
