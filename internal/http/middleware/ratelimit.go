package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"dentalclinic/internal/service"
)

// idleLimiterTTL drops the bucket of a client that has been quiet for this long.
const idleLimiterTTL = 10 * time.Minute

// RateLimit allows perMinute requests per client IP with the given burst.
// Excess requests fail with TOO_MANY_REQUESTS and a Retry-After header.
func RateLimit(perMinute, burst int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	limiters := cache.New(idleLimiterTTL, 2*idleLimiterTTL)
	every := rate.Every(time.Minute / time.Duration(perMinute))
	var mu sync.Mutex

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if v, ok := limiters.Get(ip); ok {
			l := v.(*rate.Limiter)
			limiters.SetDefault(ip, l)
			return l
		}
		l := rate.NewLimiter(every, burst)
		limiters.SetDefault(ip, l)
		return l
	}

	return func(c *fiber.Ctx) error {
		r := limiterFor(c.IP()).Reserve()
		if d := r.Delay(); d > 0 {
			r.Cancel()
			c.Set(fiber.HeaderRetryAfter, retryAfter(d))
			return service.ErrTooManyRequests
		}
		return c.Next()
	}
}

func retryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	return strconv.Itoa(secs)
}
