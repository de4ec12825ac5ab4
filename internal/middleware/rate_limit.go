package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per client in fixed windows stored in redis.
// Without a redis client every request is allowed.
type RateLimiter struct {
	redisClient *redis.Client
}

type RateLimit struct {
	Name     string        // Key namespace, so limits on different routes are independent
	Requests int           // Number of requests
	Window   time.Duration // Time window
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
	}
}

func (rl *RateLimiter) Limit(limit RateLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.redisClient == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := fmt.Sprintf("rate_limit:%s:%s", limit.Name, c.ClientIP())

		pipe := rl.redisClient.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, limit.Window)
		ttlCmd := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			// If Redis is down, allow the request
			slog.Default().Warn("Rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		count := int(incr.Val())
		ttl := ttlCmd.Val()
		if ttl < 0 {
			ttl = limit.Window
		}
		remaining := max(limit.Requests-count, 0)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > limit.Requests {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) AuthLimit() gin.HandlerFunc {
	return rl.Limit(RateLimit{Name: "auth", Requests: 5, Window: time.Minute})
}

func (rl *RateLimiter) APILimit() gin.HandlerFunc {
	return rl.Limit(RateLimit{Name: "api", Requests: 100, Window: time.Minute})
}

// RegistrationLimit throttles the public event registration form.
func (rl *RateLimiter) RegistrationLimit() gin.HandlerFunc {
	return rl.Limit(RateLimit{Name: "register", Requests: 10, Window: time.Minute})
}
