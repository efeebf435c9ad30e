package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitKeyPrefix = "tradescribe:ratelimit:"

	// HeaderRateLimit and friends expose the current window to clients.
	HeaderRateLimit          = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimitConfig controls request throttling for the import endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyFunc extracts the throttling key; defaults to the authenticated
	// user id with client IP as fallback.
	KeyFunc func(*gin.Context) string
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests: 120,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			if uid := UserID(c); uid != "" {
				return uid
			}
			return c.ClientIP()
		},
	}
}

// RateLimiter throttles requests per key, using Redis when available and
// an in-memory map otherwise.
type RateLimiter struct {
	config RateLimitConfig
	redis  *redis.Client
	logger *zap.Logger

	mu    sync.Mutex
	local map[string]*windowEntry
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(config RateLimitConfig, redisClient *redis.Client, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.KeyFunc == nil {
		config.KeyFunc = DefaultRateLimitConfig().KeyFunc
	}
	return &RateLimiter{
		config: config,
		redis:  redisClient,
		logger: logger,
		local:  make(map[string]*windowEntry),
	}
}

// Middleware returns the gin handler enforcing the limit. Backend errors
// fail open: the request proceeds and the error is logged.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.config.KeyFunc(c)

		allowed, remaining, resetAt, err := rl.take(c.Request.Context(), key)
		if err != nil {
			rl.logger.Error("rate limit check failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header(HeaderRateLimit, strconv.Itoa(rl.config.Requests))
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(remaining))
		c.Header(HeaderRateLimitReset, strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int64(time.Until(resetAt).Seconds()),
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) take(ctx context.Context, key string) (bool, int, time.Time, error) {
	if rl.redis != nil {
		return rl.takeRedis(ctx, key)
	}
	return rl.takeLocal(key)
}

// takeRedis increments atomically via a Lua script so concurrent requests
// across instances share one counter.
var rateLimitScript = redis.NewScript(`
	local current = tonumber(redis.call("GET", KEYS[1]) or "0")
	local limit = tonumber(ARGV[1])
	if current >= limit then
		return {0, 0, redis.call("TTL", KEYS[1])}
	end
	current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("EXPIRE", KEYS[1], ARGV[2])
	end
	return {1, limit - current, redis.call("TTL", KEYS[1])}
`)

func (rl *RateLimiter) takeRedis(ctx context.Context, key string) (bool, int, time.Time, error) {
	res, err := rateLimitScript.Run(ctx, rl.redis,
		[]string{rateLimitKeyPrefix + key},
		rl.config.Requests, int(rl.config.Window.Seconds()),
	).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected rate limit script result %v", res)
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	ttl, _ := values[2].(int64)

	return allowed == 1, int(remaining), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

func (rl *RateLimiter) takeLocal(key string) (bool, int, time.Time, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, ok := rl.local[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(rl.config.Window)}
		rl.local[key] = entry
	}
	if entry.count >= rl.config.Requests {
		return false, 0, entry.resetAt, nil
	}
	entry.count++
	return true, rl.config.Requests - entry.count, entry.resetAt, nil
}

// Reset clears the window for a key.
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	if rl.redis != nil {
		return rl.redis.Del(ctx, rateLimitKeyPrefix+key).Err()
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.local, key)
	return nil
}
