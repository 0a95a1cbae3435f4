package serverutils

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key. Idle buckets are dropped by
// Sweep.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	now := l.now()
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Sweep forgets keys idle for longer than idle.
func (l *RateLimiter) Sweep(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}

// RateLimitMiddleware limits per authenticated user, falling back to the
// client IP. Place it after JwtMiddleware.
func RateLimitMiddleware(l *RateLimiter) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		key := UserID(ctx)
		if key == "" {
			key = ctx.IP()
		}
		if !l.Allow(key) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(fiber.StatusTooManyRequests, "Too many requests, slow down"))
		}
		return ctx.Next()
	}
}
