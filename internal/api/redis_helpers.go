package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"greetcard/internal/api/middleware"
)

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// createLimiter 按客户端 IP 和自然日限制创建类请求（卡片、短链接、上传）。
// counter 为 nil 或 limit <= 0 时不限制；Redis 故障时放行。
type createLimiter struct {
	counter redisRateCounter
	limit   int
	now     func() time.Time
}

func newCreateLimiter(counter redisRateCounter, limit int) *createLimiter {
	return &createLimiter{counter: counter, limit: limit, now: time.Now}
}

func (l *createLimiter) allow(ctx context.Context, scope, clientIP string) (bool, error) {
	if l == nil || l.counter == nil || l.limit <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("rate:%s:%s:%s", scope, clientIP, l.now().UTC().Format("2006-01-02"))
	count, err := incrWithTTL(ctx, l.counter, key, 24*time.Hour)
	if err != nil {
		return true, err
	}
	return count <= int64(l.limit), nil
}

// middleware 超过限额时返回 429。
func (l *createLimiter) middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.allow(c.Request.Context(), scope, c.ClientIP())
		if err != nil {
			middleware.LoggerFromContext(c).Warn("rate limit counter unavailable", slog.Any("error", err))
		}
		if !ok {
			c.Header("Retry-After", fmt.Sprint(int(time.Hour.Seconds())))
			TooManyRequests(c)
			return
		}
		c.Next()
	}
}
