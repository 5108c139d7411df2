package httpkit

import (
	"context"
	"net/http"
	"sync"

	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// IPRateLimiter keeps one token bucket per key in process memory. Prefer
// redislock.WindowLimiter when more than one replica serves traffic.
type IPRateLimiter struct {
	buckets sync.Map
	rate    rate.Limit
	burst   int
}

func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{rate: r, burst: burst}
}

func (l *IPRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	if b, ok := l.buckets.Load(key); ok {
		return b.(*rate.Limiter).Allow(), nil
	}
	b, _ := l.buckets.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	return b.(*rate.Limiter).Allow(), nil
}

// RateLimit throttles by client IP. Limiter errors fail open.
func RateLimit(limiter Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), ip)
		switch {
		case err != nil:
			if log != nil {
				log.Warn("rate limiter unavailable, allowing request", "error", err)
			}
		case !allowed:
			if log != nil {
				log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
