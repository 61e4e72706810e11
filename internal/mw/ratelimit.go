package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ClientLimiter hands out one token bucket per client key. Buckets of clients that stay
// quiet for idleTTL are evicted.
type ClientLimiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
}

// NewClientLimiter creates a ClientLimiter allowing limit events per second with burst.
func NewClientLimiter(limit rate.Limit, burst int, idleTTL time.Duration) *ClientLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &ClientLimiter{
		buckets: cache.New(idleTTL, idleTTL),
		limit:   limit,
		burst:   burst,
		idleTTL: idleTTL,
	}
}

// Allow consumes one token from key's bucket.
func (l *ClientLimiter) Allow(key string) bool {
	l.mu.Lock()
	var limiter *rate.Limiter
	if v, ok := l.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	// Refresh the idle deadline on every request.
	l.buckets.Set(key, limiter, l.idleTTL)
	l.mu.Unlock()

	return limiter.Allow()
}

// RateLimiter is a middleware for client-IP based rate limiting.
func RateLimiter(limit rate.Limit, burst int) gin.HandlerFunc {
	limiter := NewClientLimiter(limit, burst, 0)
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
