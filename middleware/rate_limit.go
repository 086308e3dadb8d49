package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

// RateLimiter is a fixed-window counter per client key. Each key's window
// starts at its first request.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*clientWindow
	rate    int           // requests per window
	window  time.Duration // time window
	now     func() time.Time
}

type clientWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*clientWindow),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Allow counts one request for key. When the key is over its limit it
// returns false and the time until its window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.sweep(now)
		l.windows[key] = &clientWindow{start: now, count: 1}
		return true, 0
	}
	if w.count >= l.rate {
		return false, l.window - now.Sub(w.start)
	}
	w.count++
	return true, 0
}

// sweep drops expired windows so idle clients do not accumulate.
// Must be called with lock held
func (l *RateLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
}

// RateLimit limits requests per client IP. A non-positive rate disables it.
func RateLimit(rate int, window time.Duration) gin.HandlerFunc {
	if rate <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRateLimiter(rate, window)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		ok, retryAfter := limiter.Allow(clientIP)
		if !ok {
			logger.Warn(c.Request.Context(), "rate limit exceeded",
				"client_ip", clientIP,
				"path", c.FullPath(),
			)

			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
				"kind":  "RateLimited",
			})
			return
		}

		c.Next()
	}
}
