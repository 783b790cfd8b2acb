package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/taskhive/taskhive/internal/apperrors"
)

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	actual, _ := rl.limiters.LoadOrStore(key, limiter)
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle buckets so ephemeral client IPs don't accumulate.
// A bucket holding its full burst has not been used since it refilled.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit limits each client IP to rps requests per second with the given
// burst allowance.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	rl := &rateLimiter{
		rate:        rate.Limit(rps),
		burst:       burst,
		lastCleanup: time.Now(),
	}

	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			apperrors.RespondWithError(c, http.StatusTooManyRequests,
				apperrors.NewAPIError("RATE_LIMITED", "Too many requests. Please try again later."))
			c.Abort()
			return
		}
		c.Next()
	}
}
