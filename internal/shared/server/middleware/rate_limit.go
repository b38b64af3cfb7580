package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"healthmate-backend/internal/shared/server/respond"
)

// RateLimitRule is a token-bucket refill rate (tokens/sec) and burst size.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimit enforces a per-principal token bucket. The principal is the
// authenticated user, falling back to client IP before auth has run. A
// zero rule disables the limiter.
func RateLimit(rule RateLimitRule) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)
			limiters[key] = l
		}
		return l
	}

	return func(c *gin.Context) {
		if rule.Rate <= 0 || rule.Burst <= 0 {
			c.Next()
			return
		}

		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}

		limiter := limiterFor(principal)
		if limiter.Allow() {
			c.Next()
			return
		}

		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		retryAfterSeconds := int(math.Ceil(delay.Seconds()))
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests", gin.H{
			"retryAfterMs": delay.Milliseconds(),
		})
	}
}
