package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/use-agent/sitecheck/config"
	"github.com/use-agent/sitecheck/models"
)

// idleLimiterTTL is how long an identity's bucket survives without traffic.
const idleLimiterTTL = time.Hour

// RateLimit returns per-identity (API key or IP) token-bucket rate limiting
// middleware powered by golang.org/x/time/rate. Buckets live in an
// expiring cache and are dropped after an hour of silence.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	limiters := gocache.New(idleLimiterTTL, 5*time.Minute)

	getLimiter := func(identity string) *rate.Limiter {
		if v, ok := limiters.Get(identity); ok {
			limiters.SetDefault(identity, v)
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		if err := limiters.Add(identity, l, gocache.DefaultExpiration); err != nil {
			// Lost the race to a concurrent request for the same identity.
			if v, ok := limiters.Get(identity); ok {
				return v.(*rate.Limiter)
			}
		}
		return l
	}

	return func(c *gin.Context) {
		// Prefer API key as identity (set by auth middleware); fall back to IP.
		identity := c.GetString(ContextKeyAPIKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		if !getLimiter(identity).Allow() {
			if cfg.RequestsPerSecond > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/cfg.RequestsPerSecond))))
			}
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited, "rate limit exceeded, please slow down")
			return
		}

		c.Next()
	}
}
