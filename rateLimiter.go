package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per client IP kept in redis.
type RateLimiter struct {
	client func() *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client func() *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	client := rl.client()
	if client == nil {
		c.Next()
		return
	}
	key := "ratelimit:" + c.ClientIP()

	count, err := client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		// Limiter outages do not take reports down.
		_ = c.Error(err)
		c.Next()
		return
	}
	if count == 1 {
		if err := client.Expire(c.Request.Context(), key, rl.window).Err(); err != nil {
			_ = c.Error(err)
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
