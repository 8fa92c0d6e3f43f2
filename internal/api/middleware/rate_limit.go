package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"glowguide/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器，整個 API 群組共用一個桶
type RateLimiter struct {
	capacity int
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	tokens int
	last   time.Time
}

// NewRateLimiter 創建每個 window 最多 requests 個請求的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	interval := window / time.Duration(requests)
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return &RateLimiter{
		capacity: requests,
		interval: interval,
		now:      time.Now,
		tokens:   requests,
		last:     time.Now(),
	}
}

// Allow 取用一個令牌；桶空時回傳 false 及下一個令牌的等待時間
func (rl *RateLimiter) Allow() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if refill := int(now.Sub(rl.last) / rl.interval); refill > 0 {
		rl.tokens = min(rl.capacity, rl.tokens+refill)
		// 未滿一個令牌的時間保留到下次
		rl.last = rl.last.Add(time.Duration(refill) * rl.interval)
		if rl.tokens == rl.capacity {
			rl.last = now
		}
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true, 0
	}
	return false, rl.interval - now.Sub(rl.last)
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window)

	return func(c *gin.Context) {
		allowed, wait := limiter.Allow()
		if allowed {
			c.Next()
			return
		}

		common.LogInfo("Rate limit exceeded",
			zap.String("ip", c.ClientIP()),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("retry_after", wait),
		)
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.ToResponse(false))
	}
}

// retryAfterSeconds 無條件進位，至少 1 秒
func retryAfterSeconds(wait time.Duration) int {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
